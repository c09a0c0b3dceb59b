package main

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctioneer/go/internal/auction/stream"
	"github.com/mcdev12/auctioneer/go/internal/config"
	"github.com/mcdev12/auctioneer/go/internal/players"
	"github.com/rs/zerolog/log"
)

// setupPlayerSource builds the configured source. A source that cannot be
// built is logged and replaced by nil, which loads as an empty queue.
func setupPlayerSource(ctx context.Context, cfg config.Config) (players.Source, func()) {
	noop := func() {}

	switch cfg.Players.Source {
	case config.SourceSheets:
		src, err := players.NewSheetsSource(ctx, cfg.Players.CredentialsFile, cfg.Players.SpreadsheetID, cfg.Players.SpreadsheetRange)
		if err != nil {
			log.Warn().Err(err).Msg("sheets player source unavailable")
			return nil, noop
		}
		return src, noop

	case config.SourcePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Players.EffectiveLoadTimeout())
		defer cancel()

		pool, err := cfg.Database.Connect(connectCtx)
		if err != nil {
			log.Warn().Err(err).Str("database", cfg.Database.Database).Msg("postgres player source unavailable")
			return nil, noop
		}
		log.Info().Str("database", cfg.Database.Database).Msg("connected to player database")
		return players.NewPostgresSource(pool), pool.Close

	default:
		return players.NewFileSource(cfg.Players.File), noop
	}
}

// setupPublisher connects the optional event stream
func setupPublisher(cfg config.Config) stream.Publisher {
	if cfg.NATS.URL == "" {
		return stream.Nop{}
	}

	jsCfg := stream.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATS.URL
	jsCfg.StreamName = cfg.NATS.StreamName
	jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

	publisher, err := stream.NewJetStreamPublisher(jsCfg, clockwork.NewRealClock())
	if err != nil {
		log.Warn().Err(err).Str("nats_url", cfg.NATS.URL).Msg("event stream unavailable, continuing without it")
		return stream.Nop{}
	}
	return publisher
}
