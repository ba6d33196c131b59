package httpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"labourconnect/internal/config"
	appcache "labourconnect/pkg/cache"
	"labourconnect/pkg/respcache"
)

// SetupCache builds the response cache described by the cache config.
// It returns nil (and a no-op cleanup) when the driver is "none".
// Metrics are registered on reg when it is not nil.
func SetupCache(ctx context.Context, cfg config.Cache, reg prometheus.Registerer) (*respcache.ResponseCache, func(), error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == appcache.DriverNone {
		log.Info().Msg("response cache disabled")
		return nil, func() {}, nil
	}

	ttl, err := config.ParseTTL(cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("cache ttl: %w", err)
	}
	cleanupInterval, err := config.ParseTTL(cfg.CleanupInterval)
	if err != nil {
		return nil, nil, fmt.Errorf("cache cleanup interval: %w", err)
	}

	c, err := appcache.Open(ctx, appcache.Config{
		Driver:          driver,
		Addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:        cfg.Pass,
		DB:              cfg.Db,
		Prefix:          cfg.Prefix,
		DefaultTTL:      ttl,
		CleanupInterval: cleanupInterval,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []respcache.Option{respcache.WithLogger(log.Logger)}
	if reg != nil {
		opts = append(opts, respcache.WithMetrics(respcache.NewMetrics(reg, "labourconnect")))
	}
	rc := respcache.New(c, opts...)

	log.Info().Str("driver", driver).Dur("default_ttl", rc.DefaultTTL()).Msg("response cache ready")
	return rc, func() { _ = c.Close() }, nil
}
