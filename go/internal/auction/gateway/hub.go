package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctioneer/go/internal/auction"
	"github.com/mcdev12/auctioneer/go/internal/auction/stream"
	"github.com/rs/zerolog/log"
)

// ErrHubStopped is returned when a connection arrives after the hub shut down
var ErrHubStopped = errors.New("auction hub stopped")

// AuctionState is the authoritative queue the hub drives
type AuctionState interface {
	Advance() (auction.PlayerView, error)
	Retreat() (auction.PlayerView, error)
	Reset(ctx context.Context) auction.Summary
	Snapshot() auction.Summary
}

// Hub owns the observer set and the single command loop. Registrations and
// commands share one FIFO queue, so every observer sees broadcasts in the
// order commands were accepted and a joiner's snapshot is never stale
// relative to the broadcasts that follow it.
type Hub struct {
	state     AuctionState
	publisher stream.Publisher

	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	events chan hubEvent
	done   chan struct{}
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int // Per-connection outbound queue; a full queue drops the connection
	QueueSize       int // Pending registrations and commands
	CheckOrigin     func(r *http.Request) bool
	Clock           clockwork.Clock
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		QueueSize:       1000,
		CheckOrigin: func(r *http.Request) bool {
			// Viewers connect from anywhere
			return true
		},
		Clock: clockwork.NewRealClock(),
	}
}

type hubEventKind int

const (
	registerEvent hubEventKind = iota
	commandEvent
)

type hubEvent struct {
	kind     hubEventKind
	conn     *Connection
	command  EventType
	parseErr error
}

// NewHub creates a hub driving state. publisher may be nil.
func NewHub(state AuctionState, publisher stream.Publisher, config ConnectionConfig) *Hub {
	if publisher == nil {
		publisher = stream.Nop{}
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1000
	}

	return &Hub{
		state:       state,
		publisher:   publisher,
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		events: make(chan hubEvent, config.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start runs the command loop until ctx is cancelled. It must be called once.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("auction hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("auction hub shutting down")
			h.closeAll()
			return
		case ev := <-h.events:
			h.handle(ctx, ev)
		}
	}
}

func (h *Hub) enqueue(ev hubEvent) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and registers it
func (h *Hub) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, h.config.SendBufferSize),
		hub:         h,
		ConnectedAt: h.config.Clock.Now(),
	}

	// Queue the registration before reading, so it precedes any command
	// this connection sends
	if !h.enqueue(hubEvent{kind: registerEvent, conn: connection}) {
		conn.Close()
		return ErrHubStopped
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (h *Hub) handle(ctx context.Context, ev hubEvent) {
	switch ev.kind {
	case registerEvent:
		h.register(ev.conn)
	case commandEvent:
		if ev.parseErr != nil {
			h.sendTo(ev.conn, errorMessageEvent("invalid message"))
			return
		}
		h.apply(ctx, ev.conn, ev.command)
	}
}

// apply runs one command against the state and broadcasts exactly one result
func (h *Hub) apply(ctx context.Context, from *Connection, command EventType) {
	logger := log.With().
		Str("connection_id", from.ID).
		Str("command", string(command)).
		Logger()

	switch command {
	case EventTypeNextPlayer:
		view, err := h.state.Advance()
		if err != nil {
			logger.Info().Str("reason", err.Error()).Msg("auction complete")
			h.broadcast(auctionCompleteEvent(err))
			return
		}
		logger.Info().
			Str("player", view.Name).
			Int("remaining", view.Remaining).
			Msg("called player")
		h.broadcast(newPlayerEvent(view))

	case EventTypeBackPlayer:
		view, err := h.state.Retreat()
		if err != nil {
			// Boundary errors go to every observer, not only the requester
			logger.Info().Str("reason", err.Error()).Msg("retreat rejected")
			h.broadcast(errorMessageEvent(err.Error()))
			return
		}
		logger.Info().
			Str("player", view.Name).
			Int("remaining", view.Remaining).
			Msg("re-showed player")
		h.broadcast(newPlayerEvent(view))

	case EventTypeResetAuction:
		summary := h.state.Reset(ctx)
		logger.Info().Int("total_players", summary.TotalPlayers).Msg("auction reset")
		h.broadcast(auctionResetEvent(summary))

	default:
		logger.Warn().Msg("unknown command")
		h.sendTo(from, errorMessageEvent(fmt.Sprintf("unknown command %q", command)))
	}
}

// register adds a connection and sends it the current snapshot
func (h *Hub) register(conn *Connection) {
	data, err := auctionStateEvent(h.state.Snapshot()).encode()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal auction state")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.closed {
		return
	}
	h.connections[conn] = true
	conn.Send <- data // fresh buffer, never full

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(h.connections)).
		Msg("connection registered")
}

// unregister removes a connection; safe to call more than once
func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.closed {
		return
	}
	conn.closed = true
	delete(h.connections, conn)
	close(conn.Send)

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.closed = true
		close(conn.Send)
	}
	h.connections = make(map[*Connection]bool)
}

// broadcast delivers one event to every registered connection and mirrors
// it to the stream publisher
func (h *Hub) broadcast(event outbound) {
	data, err := event.encode()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	// Sends happen under the read lock; Send channels are only closed under
	// the write lock
	var slow []*Connection
	h.mu.RLock()
	for conn := range h.connections {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	delivered := len(h.connections) - len(slow)
	h.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		h.unregister(conn)
		conn.Conn.Close()
	}

	h.publisher.Publish(string(event.Event), event.Payload)

	log.Debug().
		Str("event_type", string(event.Event)).
		Int("connections", delivered).
		Msg("event broadcasted")
}

// sendTo delivers an event to a single connection
func (h *Hub) sendTo(conn *Connection, event outbound) {
	data, err := event.encode()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if conn.closed {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, dropping message")
	}
}

// Stats summarizes the current observer set
type Stats struct {
	TotalConnections int `json:"total_connections"`
}

// GetConnectionStats returns statistics about active connections
func (h *Hub) GetConnectionStats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{TotalConnections: len(h.connections)}
}
