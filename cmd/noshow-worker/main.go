package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/app"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/config"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With("component", "noshow-worker")
	slog.SetDefault(logger)
	logger.Info("noshow-worker starting up", "env", cfg.Env, "interval", cfg.WorkerInterval, "grace", cfg.NoShowGrace)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(rootCtx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	runOnce(rootCtx, a.Service, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping noshow-worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, a.Service, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *usecase.Service, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	res := svc.SweepMissedAppointments(runCtx)
	if !res.OK {
		logger.Error("sweep failed", "kind", res.Kind, "error", res.Error)
		return
	}
	logger.Info("sweep complete",
		"scanned", res.Value.Scanned,
		"proposed", res.Value.Proposed,
		"escalated", res.Value.Escalated,
		"failed", res.Value.Failed,
		"took", time.Since(start),
	)
}
