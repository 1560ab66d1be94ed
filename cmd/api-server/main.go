package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sungwon/campaign-dispatch/internal/api"
	"github.com/sungwon/campaign-dispatch/internal/bootstrap"
	"github.com/sungwon/campaign-dispatch/internal/config"
	"github.com/sungwon/campaign-dispatch/internal/delivery"
	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/draft"
	"github.com/sungwon/campaign-dispatch/internal/events"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/queue"
	"github.com/sungwon/campaign-dispatch/internal/segment"
	"github.com/sungwon/campaign-dispatch/internal/storage"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(configDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Logging.Logger())
	log.Info().Str("delivery_mode", cfg.Delivery.Mode).Msg("starting API server")

	ctx := context.Background()

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connection established")

	subscribers := storage.NewSubscriberRepository(db.Pool)
	classifier := segment.NewClassifier(nil)

	if n, err := bootstrap.SeedSubscribersFile(ctx, subscribers, classifier, cfg.Subscribers.SeedFile, log); err != nil {
		log.Fatal().Err(err).Msg("failed to seed subscribers")
	} else if n > 0 {
		log.Info().Int("seeded", n).Msg("subscriber seed applied")
	}

	backend, err := draft.NewBackend(ctx, cfg.Drafts, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create draft backend")
	}

	dispatcher := dispatch.New(cfg.Dispatch.Dispatcher())

	deps := api.Dependencies{
		DB:          db,
		Classifier:  classifier,
		Drafts:      draft.NewPersister(backend),
		Subscribers: subscribers,
	}

	switch cfg.Delivery.Mode {
	case delivery.ModeSync:
		gateways, err := bootstrap.BuildGateways(ctx, cfg.Gateway, true, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build gateways")
		}
		defer gateways.Stop()

		publisher, err := events.New(cfg.Events, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		defer publisher.Close()

		deps.Delivery = delivery.NewSyncService(gateways.Router, dispatcher, publisher, log)
		deps.Gateways = gateways.Health
		deps.Registry = gateways.Registry

	default:
		if cfg.Delivery.Mode != delivery.ModeAsync {
			log.Warn().Str("mode", cfg.Delivery.Mode).Msg("unknown delivery mode, defaulting to async")
		}
		q, err := queue.New(ctx, cfg.Queue, nil, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create queue")
		}
		defer q.Close()

		deps.Delivery = delivery.NewAsyncService(q.Enqueuer, dispatcher.NewCampaignID, log)
		if q.DLQ != nil {
			deps.DLQ = q.DLQ
		}

		// Status lookups only need the clients, not health checks or routing.
		if gateways, err := bootstrap.BuildGateways(ctx, cfg.Gateway, false, log); err != nil {
			log.Warn().Err(err).Msg("message status lookups disabled")
		} else {
			deps.Registry = gateways.Registry
		}
	}

	router := api.NewRouter(deps, log)

	addr := cfg.API.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// configDir returns CAMPAIGN_DISPATCH_CONFIG_DIR or "config".
func configDir() string {
	if dir := os.Getenv("CAMPAIGN_DISPATCH_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
