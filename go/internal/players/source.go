package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingColumns is returned when a table has neither a name nor a base_price column
	ErrMissingColumns = errors.New("missing name and base_price columns")
	// ErrUnsupportedFormat is returned for file extensions no reader handles
	ErrUnsupportedFormat = errors.New("unsupported player file format")
)

// Source loads the full list of players for an auction
type Source interface {
	Load(ctx context.Context) ([]models.Player, error)
}

// LoadError records which source failed to load and why
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load players from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadOrEmpty loads players from src, mapping any failure to an empty list.
// Failures are logged, never returned.
func LoadOrEmpty(ctx context.Context, src Source) []models.Player {
	if src == nil {
		log.Warn().Msg("no player source configured, starting with an empty queue")
		return []models.Player{}
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load players, starting with an empty queue")
		return []models.Player{}
	}
	if loaded == nil {
		return []models.Player{}
	}
	return loaded
}

// StaticSource serves a fixed list of players
type StaticSource []models.Player

// Load returns a copy of the list
func (s StaticSource) Load(ctx context.Context) ([]models.Player, error) {
	out := make([]models.Player, len(s))
	copy(out, s)
	return out, nil
}

// SourceFunc adapts a plain function to Source
type SourceFunc func(ctx context.Context) ([]models.Player, error)

// Load calls f
func (f SourceFunc) Load(ctx context.Context) ([]models.Player, error) {
	return f(ctx)
}
