// Command kvredisd runs the key/value store: a RESP2 listener plus a
// Prometheus /metrics endpoint, wired from layered configuration.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/adred-codev/kvredis/internal/config"
	"github.com/adred-codev/kvredis/internal/logging"
	"github.com/adred-codev/kvredis/internal/metrics"
	"github.com/adred-codev/kvredis/internal/server"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.New("info", "json", "bootstrap").Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "kvredisd")

	// automaxprocs rounds GOMAXPROCS down to the container's CPU limit;
	// logged once at startup so a wrong cgroup limit is visible quickly.
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting")
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("unixsocket", cfg.UnixSocket).
		Int("databases", cfg.Databases).
		Int64("maxmemory", cfg.MaxMemoryBytes).
		Msg("configuration loaded")

	srv := server.New(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(ctx)
	srv.Shutdown()
	logger.Info().Msg("shutdown complete")
}
