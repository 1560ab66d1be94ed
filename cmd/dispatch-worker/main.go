package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sungwon/campaign-dispatch/internal/bootstrap"
	"github.com/sungwon/campaign-dispatch/internal/config"
	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/events"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/queue"
	"github.com/sungwon/campaign-dispatch/internal/worker"
)

func main() {
	_ = godotenv.Load()

	dir := os.Getenv("CAMPAIGN_DISPATCH_CONFIG_DIR")
	if dir == "" {
		dir = "config"
	}
	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Logging.Logger())
	log.Info().Msg("starting dispatch worker")

	ctx := context.Background()

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

	dispatcher := dispatch.New(cfg.Dispatch.Dispatcher())
	handler := worker.NewHandler(gateways.Router, dispatcher, publisher, log)

	q, err := queue.New(ctx, cfg.Queue, handler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}
	defer q.Close()

	metricsSrv := &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	if err := q.Dequeuer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start dequeuer")
	}
	log.Info().
		Str("queue", cfg.Queue.Type).
		Int("workers", cfg.Queue.WorkerCount).
		Strs("gateways", gateways.Registry.List()).
		Msg("dispatch worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down dispatch worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := q.Dequeuer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dequeuer did not stop cleanly")
	}
	metricsSrv.Shutdown(shutdownCtx)

	log.Info().Msg("dispatch worker stopped")
}
