package players

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/rs/zerolog/log"
)

const selectPlayersSQL = `SELECT name, base_price::text FROM auction_players ORDER BY id`

// PostgresSource reads players from the auction_players table
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource wraps an open pool
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Load queries every row; NULL columns fall back to defaults
func (s *PostgresSource) Load(ctx context.Context) ([]models.Player, error) {
	rows, err := s.pool.Query(ctx, selectPlayersSQL)
	if err != nil {
		return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("query players: %w", err)}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var name, price *string
		if err := rows.Scan(&name, &price); err != nil {
			return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("scan player: %w", err)}
		}
		rec := Record{}
		if name != nil {
			rec[nameColumn] = *name
		}
		if price != nil {
			rec[basePriceColumn] = *price
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: "postgres", Err: fmt.Errorf("iterate players: %w", err)}
	}

	loaded := DecodeRecords(records)
	log.Debug().Int("players", len(loaded)).Msg("players read from postgres")
	return loaded, nil
}
