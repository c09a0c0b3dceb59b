package players

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// newTestPool connects to AUCTION_TEST_DATABASE_URL with a single connection
// so a temp auction_players table shadows any real one for the whole test.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("AUCTION_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUCTION_TEST_DATABASE_URL not set")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	assert.NoError(t, err)
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	assert.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `
CREATE TEMP TABLE auction_players (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT,
  base_price NUMERIC
)`)
	assert.NoError(t, err)
	return pool
}

func TestPostgresSource_Load(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
INSERT INTO auction_players (name, base_price) VALUES
  ('A', 100.50),
  (NULL, 20),
  ('C', NULL),
  ('A', 7)`)
	assert.NoError(t, err)

	got, err := NewPostgresSource(pool).Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(got))

	check.Equal(t, "A", got[0].Name)
	check.True(t, got[0].BasePrice.Equal(decimal.RequireFromString("100.50")))
	check.Equal(t, models.UnknownPlayerName, got[1].Name)
	check.True(t, got[1].BasePrice.Equal(decimal.NewFromInt(20)))
	check.Equal(t, "C", got[2].Name)
	check.True(t, got[2].BasePrice.IsZero())
	check.Equal(t, "A", got[3].Name)
	check.True(t, got[3].BasePrice.Equal(decimal.NewFromInt(7)))
}

func TestPostgresSource_LoadEmptyTable(t *testing.T) {
	pool := newTestPool(t)

	got, err := NewPostgresSource(pool).Load(context.Background())
	assert.NoError(t, err)
	check.Equal(t, 0, len(got))
}

func TestPostgresSource_QueryError(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `DROP TABLE auction_players`)
	assert.NoError(t, err)

	// With the temp table gone the query may hit a real table; only check
	// failures are wrapped when there is none.
	got, err := NewPostgresSource(pool).Load(ctx)
	if err == nil {
		t.Skip("a persistent auction_players table exists")
	}
	var loadErr *LoadError
	check.True(t, errors.As(err, &loadErr))
	check.Equal(t, "postgres", loadErr.Source)
	check.Equal(t, 0, len(got))
}
