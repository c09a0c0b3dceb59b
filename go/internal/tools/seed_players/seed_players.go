package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mcdev12/auctioneer/go/internal/dbconfig"
	"github.com/mcdev12/auctioneer/go/internal/models"
	"github.com/mcdev12/auctioneer/go/internal/players"
)

// Rows are keyed by id so repeated names (including the "Unknown" default)
// stay separate entries in the queue.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS auction_players (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT NOT NULL,
  base_price NUMERIC NOT NULL DEFAULT 0
)`

const truncatePlayersSQL = `TRUNCATE auction_players RESTART IDENTITY`

const insertPlayerSQL = `
INSERT INTO auction_players (name, base_price)
VALUES ($1, $2::numeric)`

// duplicateNames returns each name that appears more than once, in first-seen order
func duplicateNames(roster []models.Player) []string {
	seen := make(map[string]int, len(roster))
	var dups []string
	for _, p := range roster {
		seen[p.Name]++
		if seen[p.Name] == 2 {
			dups = append(dups, p.Name)
		}
	}
	return dups
}

func main() {
	path := flag.String("file", "players.xlsx", "player file to import (.xlsx, .csv, .yaml, .json)")
	flag.Parse()

	ctx := context.Background()

	// 1) Load the player file
	roster, err := players.NewFileSource(*path).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load players: %v\n", err)
		os.Exit(1)
	}
	for _, name := range duplicateNames(roster) {
		fmt.Fprintf(os.Stderr, "warning: name %q appears more than once; each row is kept\n", name)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := cfg.Connect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		fmt.Fprintf(os.Stderr, "create table: %v\n", err)
		os.Exit(1)
	}

	// 3) Replace the table contents with the file, all or nothing
	tx, err := pool.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "begin: %v\n", err)
		os.Exit(1)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, truncatePlayersSQL); err != nil {
		fmt.Fprintf(os.Stderr, "truncate: %v\n", err)
		os.Exit(1)
	}
	for i, p := range roster {
		if _, err := tx.Exec(ctx, insertPlayerSQL, p.Name, p.BasePrice.String()); err != nil {
			fmt.Fprintf(os.Stderr, "insert row %d (%q): %v\n", i+1, p.Name, err)
			os.Exit(1)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "commit: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf(
		"Auction players seed: total=%d inserted=%d duplicates=%d\n",
		len(roster), len(roster), len(duplicateNames(roster)),
	)
}
