package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/handlers"
	"github.com/dcurrey/dupReport/internal/scheduler"
	"github.com/dcurrey/dupReport/internal/server"
)

// Serve keeps the store open, runs full cycles on the configured schedule
// and exposes the status API until interrupted.
func Serve(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	a, err := New(cfg, opts)
	if errors.Is(err, errInitOnly) {
		logrus.Infof("Database %s initialized", cfg.DBFile)
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	a.metrics.WithRuntimeCollectors()

	sched := scheduler.NewScheduler(cfg.Main.Schedule, func(ctx context.Context) error {
		return a.Cycle(ctx, true, true)
	})

	h := handlers.NewHandlers(a.db, sched, a.metrics)
	srv := server.New(cfg.Main.Listen, h)

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Starting HTTP server on %s", cfg.Main.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return runErr
}
