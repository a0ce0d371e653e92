package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/breakup-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/breakup-etl/internal/config"
	"github.com/couchcryptid/breakup-etl/internal/domain"
	"github.com/couchcryptid/breakup-etl/internal/observability"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags] <points.csv>",
		Short: "Runs batches on SCHEDULE and serves health, metrics, and the latest rollup",
		Long:  `breakup serve --mode route|segment [--run-now] <points.csv>`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := modeFromFlags(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			runNow, _ := cmd.Flags().GetBool("run-now")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg, args[0], mode, runNow)
		},
	}
	addModeFlags(cmd)
	cmd.Flags().Bool("run-now", false, "run one batch immediately at startup")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, path string, mode domain.PointMode, runNow bool) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(ctx, cfg, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	batch := func() {
		if _, err := a.runFile(ctx, path, mode); err != nil {
			logger.Error("batch failed", "error", err)
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, batch); err != nil {
		return fmt.Errorf("schedule batch: %w", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	scheduler.Start()
	logger.Info("scheduler started", "schedule", cfg.Schedule)
	if runNow {
		go batch()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("batch still running at shutdown deadline")
	}

	logger.Info("shutdown complete")
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
