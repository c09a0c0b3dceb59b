package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/auctioneer/go/internal/auction"
	"github.com/mcdev12/auctioneer/go/internal/auction/gateway"
	"github.com/mcdev12/auctioneer/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closeSource := setupPlayerSource(ctx, cfg)
	defer closeSource()

	// Players are loaded once here; later loads only happen on reset_auction
	state := auction.NewState(source, auction.WithLoadTimeout(cfg.Players.EffectiveLoadTimeout()))
	state.Reset(ctx)

	publisher := setupPublisher(cfg)
	defer publisher.Close()

	gatewayService := gateway.NewService(gateway.DefaultConfig(), state, publisher)
	server := setupServer(cfg, gatewayService)

	log.Info().
		Str("addr", server.Addr).
		Str("players_source", cfg.Players.Source).
		Bool("event_stream", cfg.NATS.URL != "").
		Msg("starting auction gateway")

	// Start the hub command loop
	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stops the hub, which closes every observer connection
	cancel()

	log.Info().Msg("auction gateway shutdown complete")
}
