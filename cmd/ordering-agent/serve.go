package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-ordering-agent/internal/common/camunda"
	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/transport/httpapi"
	notify "food-ordering-agent/internal/workers/order-fulfillment/notify-order-created"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	zapLog := a.zapLog
	zapLog.Info("Starting ordering agent...", zap.String("environment", cfg.App.Environment))

	// --- Fulfilment worker ---
	var workers []*camunda.CamundaWorker
	if a.camunda != nil && cfg.Camunda.NotifyWorkerEnabled {
		wcfg := notify.LoadConfig(cfg.Camunda)
		handler := notify.NewHandler(wcfg, a.catalog, a.notifier, a.log)
		workers = append(workers, camunda.NewWorker(
			a.camunda.GetClient(), notify.TaskType, wcfg.MaxJobsActive, wcfg.Timeout, handler, zapLog,
		))
	}

	// --- HTTP server ---
	api := httpapi.NewServer(httpapi.Config{
		CookieName:     cfg.Server.CookieName,
		CookieMaxAge:   cfg.Server.CookieMaxAge,
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
	}, a.engine, a.orders, a.checks, a.log)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping server...")
	case err, ok := <-errCh:
		if ok {
			zapLog.Error("HTTP server failed", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("Ordering agent stopped gracefully")
	return nil
}
