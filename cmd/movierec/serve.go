package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/metrics"
	chiTransport "github.com/kailas-cloud/movierec/internal/transport/chi"
	healthuc "github.com/kailas-cloud/movierec/internal/usecase/health"
	"github.com/kailas-cloud/movierec/internal/version"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(envName)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	logger.Info("Starting movierec API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", a.cfg.HTTP.Port),
	)

	if err := a.openCredentials(ctx); err != nil {
		logger.Fatal("Credential store unavailable", zap.Error(err))
	}
	if err := a.openRecommender(ctx); err != nil {
		// A shape mismatch means the artifacts are unusable; there is nothing to serve.
		logger.Fatal("Failed to load recommender", zap.Error(err))
	}

	// Register HTTP metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()

	healthSvc := healthuc.New(a.store, a.tmdb)
	server := chiTransport.NewServer(a.recommend, a.users, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		LoginRateLimit: a.cfg.Auth.LoginRateLimit,
	}, logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
