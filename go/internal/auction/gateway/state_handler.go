package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// StateHandler serves the auction snapshot over plain HTTP
type StateHandler struct {
	state AuctionState
}

// NewStateHandler creates a new state handler
func NewStateHandler(state AuctionState) *StateHandler {
	return &StateHandler{
		state: state,
	}
}

// HandleGetState returns total and remaining player counts
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.state.Snapshot()); err != nil {
		log.Error().Err(err).Msg("failed to encode auction state")
	}
}

// RegisterStateRoutes registers state routes with an HTTP mux
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auction/state", h.HandleGetState)
}
