// Package main is the entry point for the EdgeKit trade analytics service.
// It ingests brokerage trade-execution exports, normalizes them into one
// canonical trade schema, computes FIFO realized P&L and derived analytics,
// and serves the results over HTTP to the presentation layer.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edgekit/edgekit/internal/config"
	"github.com/edgekit/edgekit/internal/modules/imports"
	"github.com/edgekit/edgekit/internal/resultcache"
	"github.com/edgekit/edgekit/internal/server"
	"github.com/edgekit/edgekit/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting EdgeKit")

	// Result cache plus its periodic expiry sweep. The cache only saves
	// re-processing of identical uploads; nothing is persisted.
	cache := resultcache.New(cfg.CacheTTL, log)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.SweepSchedule, resultcache.NewSweepJob(cache, log)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Failed to schedule cache sweep")
	}
	scheduler.Start()

	srv := server.New(server.Config{
		Log:        log,
		Cfg:        cfg,
		Dispatcher: imports.NewDispatcher(log),
		Cache:      cache,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("EdgeKit stopped")
}
