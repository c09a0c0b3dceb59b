package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Publisher mirrors hub broadcasts to an external event stream. Publish must
// not block the caller.
type Publisher interface {
	Publish(eventType string, payload any)
	Close() error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(string, any) {}
func (Nop) Close() error        { return nil }

// Envelope is the message body written to the stream
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload with a fresh event ID and the clock's current time
func NewEnvelope(clock clockwork.Clock, eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: clock.Now().UTC(),
		Payload:   data,
	}, nil
}

// Subject returns the stream subject for an event type
func Subject(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", prefix, eventType)
}

type JetStreamConfig struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	MaxAge         time.Duration // How long to keep messages
	Replicas       int
	BufferSize     int           // Events queued before new ones are dropped
	PublishTimeout time.Duration // Per-message publish deadline
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:            nats.DefaultURL,
		StreamName:     "AUCTION_EVENTS",
		SubjectPrefix:  "auction.events",
		MaxReconnects:  -1, // Infinite
		ReconnectWait:  2 * time.Second,
		MaxAge:         24 * time.Hour,
		Replicas:       1,
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
	}
}

// JetStreamPublisher publishes envelopes from a background goroutine so the
// hub's command loop never waits on the network
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	clock  clockwork.Clock

	mu     sync.Mutex
	closed bool
	queue  chan Envelope
	done   chan struct{}
}

func NewJetStreamPublisher(cfg JetStreamConfig, clock clockwork.Clock) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultJetStreamConfig().BufferSize
	}
	p := &JetStreamPublisher{
		nc:     nc,
		js:     js,
		config: cfg,
		clock:  clock,
		queue:  make(chan Envelope, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	go p.run()
	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Auction caller broadcast events",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    p.config.Replicas,
	}

	if _, err := p.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	log.Info().
		Str("stream", p.config.StreamName).
		Msg("JetStream stream ready")
	return nil
}

// Publish enqueues the event, dropping it when the buffer is full
func (p *JetStreamPublisher) Publish(eventType string, payload any) {
	env, err := NewEnvelope(p.clock, eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build stream envelope")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- env:
	default:
		log.Warn().Str("event_type", eventType).Msg("stream buffer full, dropping event")
	}
}

func (p *JetStreamPublisher) run() {
	defer close(p.done)
	for env := range p.queue {
		if err := p.send(env); err != nil {
			log.Error().
				Err(err).
				Str("event_id", env.EventID).
				Str("event_type", env.EventType).
				Msg("failed to publish to JetStream")
		}
	}
}

func (p *JetStreamPublisher) send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	subject := Subject(p.config.SubjectPrefix, env.EventType)
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{env.EventType},
			"Event-ID":   []string{env.EventID},
		},
	},
		jetstream.WithMsgID(env.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID).
		Uint64("sequence", ack.Sequence).
		Msg("published to JetStream")
	return nil
}

// Close flushes queued events and closes the NATS connection
func (p *JetStreamPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
