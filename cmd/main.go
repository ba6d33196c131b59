package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"labourconnect/internal/config"
	httpserver "labourconnect/internal/server/http"
	"labourconnect/pkg/cfg"
	"labourconnect/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	env := cfg.String("APP_ENV", "dev")

	cleanup := logger.Setup(env)
	defer cleanup()

	configPath := cfg.String("APP_CONFIG", "config.yaml")

	conf, err := config.Build(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to build config")
	}
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if pretty, err := conf.Pretty(); err == nil {
		log.Debug().Msg("effective config:\n" + pretty)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rc, cacheCleanup, err := httpserver.SetupCache(ctx, conf.Cache, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init cache")
	}
	defer cacheCleanup()

	srv := httpserver.New(conf, rc, reg)

	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// wait for signal
	<-ctx.Done()
	// give some time for graceful shutdown
	time.Sleep(cfg.Duration("APP_SHUTDOWN_GRACE", time.Second))
}
