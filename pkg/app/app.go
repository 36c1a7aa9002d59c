// Package app wires configuration, storage, services and the HTTP router.
// The long running server and the serverless entrypoint share it.
package app

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/ratelimit"
	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/core/services"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type App struct {
	Handler handler.Services
	Store   *repository.Store
	limiter *ratelimit.RedisLimiter
}

// New opens the store (and Redis when configured) and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{Store: store}
	var limiter ports.RateLimiter
	if cfg.RedisURL != "" {
		l, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisURL, cfg.RateLimitMax, cfg.RateLimitWindow())
		if err != nil {
			// Rate limiting is optional; serve without it.
			logger.GetAppLogger().WithError(err).Warn("Redis unavailable, rate limiting disabled")
		} else {
			a.limiter = l
			limiter = l
		}
	}

	a.Handler = NewServices(store)
	a.Handler.Limiter = limiter
	return a, nil
}

// NewServices builds every service on top of a store.
func NewServices(store *repository.Store) handler.Services {
	linktrees := services.NewLinktreeService(store.Linktrees, store.Analytics)
	abtests := services.NewABTestService(store.ABTests, store.Linktrees)
	return handler.Services{
		Linktrees: linktrees,
		ABTests:   abtests,
		Analytics: services.NewAnalyticsService(store.Analytics, linktrees),
		Resolver:  services.NewResolverService(store.Linktrees, store.Users, abtests),
		Users:     services.NewUserService(store.Users),
		Health:    store.Health,
		Backend:   store.Backend,
	}
}

func (a *App) Close() error {
	if a.limiter != nil {
		_ = a.limiter.Close()
	}
	return a.Store.Close()
}
