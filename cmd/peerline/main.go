package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dborella/peerline/internal/auth"
	"github.com/dborella/peerline/internal/blob"
	"github.com/dborella/peerline/internal/config"
	"github.com/dborella/peerline/internal/httpapi"
	"github.com/dborella/peerline/internal/observability"
	"github.com/dborella/peerline/internal/presence"
	"github.com/dborella/peerline/internal/relay"
	"github.com/dborella/peerline/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	messageStore, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer messageStore.Close()
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}

	blobs, err := blob.NewLocalStore(cfg.UploadDir, "/uploads", cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("blob store init failed")
	}

	verifier := auth.NewJWTVerifier(cfg.TokenSecret)

	registry := presence.NewRegistry()
	hub := relay.New(registry, messageStore, metrics, cfg.StoreTimeout)

	api := httpapi.New(cfg, verifier, messageStore, blobs, registry, hub, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartMonitor(runCtx, cfg.HeartbeatInterval)

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
