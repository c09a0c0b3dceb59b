package auction

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/mcdev12/auctioneer/go/internal/players"
	"github.com/rs/zerolog/log"
)

// DefaultLoadTimeout bounds a single player load during Reset
const DefaultLoadTimeout = 30 * time.Second

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// State owns the shuffled queue and the cursor into it. The cursor counts
// players already called, 0 <= cursor <= len(queue). All methods are safe
// for concurrent use and leave no partial state behind.
type State struct {
	mu          sync.Mutex
	source      players.Source
	shuffler    Shuffler
	loadTimeout time.Duration

	queue  []models.Player
	cursor int
}

// Option configures a State
type Option func(*State)

// WithShuffler replaces the random permutation used by Reset
func WithShuffler(s Shuffler) Option {
	return func(st *State) {
		st.shuffler = s
	}
}

// WithLoadTimeout bounds each load performed by Reset
func WithLoadTimeout(d time.Duration) Option {
	return func(st *State) {
		if d > 0 {
			st.loadTimeout = d
		}
	}
}

// NewState creates an empty state. Call Reset to load the first queue.
func NewState(source players.Source, opts ...Option) *State {
	s := &State{
		source:      source,
		shuffler:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		loadTimeout: DefaultLoadTimeout,
		queue:       []models.Player{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset reloads players from the source, shuffles them and rewinds the
// cursor. A failed load leaves an empty queue.
func (s *State) Reset(ctx context.Context) Summary {
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	loaded := players.LoadOrEmpty(loadCtx, s.source)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	queue := make([]models.Player, len(loaded))
	copy(queue, loaded)
	s.shuffler.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	s.queue = queue
	s.cursor = 0

	log.Info().Int("players", len(queue)).Msg("loaded and shuffled players")

	return s.summaryLocked()
}

// Advance calls the next player. Past the end it keeps returning
// ErrAllPlayersCalled without changing anything.
func (s *State) Advance() (PlayerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return PlayerView{}, ErrNoPlayersLoaded
	}
	if s.cursor >= len(s.queue) {
		return PlayerView{}, ErrAllPlayersCalled
	}

	player := s.queue[s.cursor]
	s.cursor++
	return s.viewLocked(player), nil
}

// Retreat steps the cursor back and re-shows the player most recently
// advanced past
func (s *State) Retreat() (PlayerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor <= 0 {
		return PlayerView{}, ErrAtFirstPlayer
	}

	s.cursor--
	return s.viewLocked(s.queue[s.cursor]), nil
}

// Snapshot returns the current counts without side effects
func (s *State) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *State) summaryLocked() Summary {
	return Summary{
		TotalPlayers:     len(s.queue),
		RemainingPlayers: len(s.queue) - s.cursor,
	}
}

func (s *State) viewLocked(p models.Player) PlayerView {
	return PlayerView{
		Name:      p.Name,
		BasePrice: p.BasePrice,
		Remaining: len(s.queue) - s.cursor,
		Total:     len(s.queue),
	}
}
