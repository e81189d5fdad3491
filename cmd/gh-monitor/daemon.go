package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/daemon"
	"github.com/marcin-skalski/gh-monitor/internal/github"
	"github.com/marcin-skalski/gh-monitor/internal/metrics"
)

func newDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, *metrics.Metrics, error) {
	opts := []github.ClientOption{github.WithTimeout(cfg.API.RequestTimeout)}
	if cfg.API.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.TokenEnv != "" {
		if token := os.Getenv(cfg.API.TokenEnv); token != "" {
			opts = append(opts, github.WithToken(token))
		} else {
			logger.Warn("token variable is empty, requests are unauthenticated", "env", cfg.API.TokenEnv)
		}
	}

	gh, err := github.NewClient(logger, opts...)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()
	return daemon.New(cfg, gh, m, logger), m, nil
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", "err", err)
		}
	}()
}
