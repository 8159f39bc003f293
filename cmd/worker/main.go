package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/kirillkom/travel-diary/internal/bootstrap"
	"github.com/kirillkom/travel-diary/internal/config"
	"github.com/kirillkom/travel-diary/internal/infrastructure/queue/nats"
	"github.com/kirillkom/travel-diary/internal/observability/logging"
	"github.com/kirillkom/travel-diary/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	cfg.EventsEnabled = true
	logging.Setup(serviceName, cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribePrintableSaved(ctx, func(handlerCtx context.Context, ev nats.PrintableSaved) error {
		if !ev.SavedAt.IsZero() {
			workerMetrics.ObserveEventLag(serviceName, time.Since(ev.SavedAt))
		}

		jobCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
		defer cancel()

		started := time.Now()
		workerMetrics.StartJob()
		err := app.PrintablesUC.RenderThumbnail(jobCtx, ev.PrintableID)
		workerMetrics.FinishJob(serviceName, time.Since(started), err)
		if err == nil {
			slog.Info("printable_thumbnail_rendered", "printable_id", ev.PrintableID)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}
