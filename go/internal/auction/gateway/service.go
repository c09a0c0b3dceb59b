package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/auctioneer/go/internal/auction/stream"
	"github.com/rs/zerolog/log"
)

// Service is the auction gateway: WebSocket hub plus HTTP state routes
type Service struct {
	hub          *Hub
	wsHandler    *WebSocketHandler
	stateHandler *StateHandler
}

// Config holds configuration for the auction gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the auction gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService wires the hub around an already-initialized state
func NewService(config Config, state AuctionState, publisher stream.Publisher) *Service {
	hub := NewHub(state, publisher, config.ConnectionConfig)

	return &Service{
		hub:          hub,
		wsHandler:    NewWebSocketHandler(hub),
		stateHandler: NewStateHandler(state),
	}
}

// Start runs the hub until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting auction gateway service")

	s.hub.Start(ctx)

	log.Info().Msg("auction gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("auction gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() Stats {
	return s.hub.GetConnectionStats()
}
