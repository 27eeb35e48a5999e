package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/config"
	"github.com/scythe504/basta-backend/internal/game"
	"github.com/scythe504/basta-backend/internal/history"
	"github.com/scythe504/basta-backend/internal/logger"
	"github.com/scythe504/basta-backend/internal/metrics"
	"github.com/scythe504/basta-backend/internal/server"
	"github.com/scythe504/basta-backend/internal/utils"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	if cfg.CategoryPresetsFile != "" {
		presets, err := utils.ReadPresetsCsvFile(cfg.CategoryPresetsFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.CategoryPresetsFile).Msg("[main] could not load category presets")
		}
		skipped := internal.RegisterPresets(presets)
		log.Info().Int("loaded", len(presets)-len(skipped)).Strs("skipped", skipped).Msg("[main] category presets loaded")
	}

	hub := game.NewHub()

	var rooms *game.Manager
	collector := metrics.New(
		func() int { return rooms.Count() },
		hub.ConnectionCount,
	)
	observers := game.Observers{collector}

	var store *history.Store
	var recorder *history.Recorder
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		store, err = history.NewStore(ctx, cfg.DatabaseURL)
		if err == nil {
			err = store.Migrate(ctx)
		}
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("[main] could not prepare game archive")
		}
		recorder = history.NewRecorder(store, 5*time.Second)
		observers = append(observers, recorder)
	} else {
		log.Info().Msg("[main] DATABASE_URL not set, game archive disabled")
	}

	settings := game.DefaultSettings()
	settings.Countdown = cfg.Countdown
	settings.ResultsDelay = cfg.ResultsDelay
	settings.GameOverDelay = cfg.GameOverDelay
	settings.LobbyReturnDelay = cfg.LobbyReturnDelay
	settings.ReconnectWindow = cfg.ReconnectWindow

	rooms = game.NewManager(hub, game.ManagerOptions{
		Settings: settings,
		Observer: observers,
	})

	opts := server.Options{
		Port:    cfg.Port,
		Rooms:   rooms,
		Sockets: game.NewSocketServer(hub, rooms, cfg.MessagesPerSecond, cfg.MessageBurst),
		Metrics: collector.Handler(),
	}
	if store != nil {
		opts.Games = store
	}
	httpServer := server.New(opts).HTTPServer()

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("[main] listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[main] server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[main] graceful shutdown failed")
	}

	rooms.Shutdown()
	if recorder != nil {
		recorder.Wait()
	}
	if store != nil {
		store.Close()
	}
	log.Info().Msg("[main] bye")
}
