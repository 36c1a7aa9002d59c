// Package repository picks the storage backend for the configured DATABASE_URL.
package repository

import (
	"context"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository/mongodb"
	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

// Store bundles the repositories of one backend with its lifecycle.
type Store struct {
	Linktrees ports.LinktreeRepository
	ABTests   ports.ABTestRepository
	Analytics ports.AnalyticsRepository
	Users     ports.UserRepository
	Health    ports.HealthChecker

	Backend string
	close   func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to MongoDB for mongodb:// and mongodb+srv:// URLs and to
// SQLite/libsql for everything else.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.UsesMongo() {
		repo, err := mongodb.NewMongoRepository(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &Store{
			Linktrees: repo.Linktrees,
			ABTests:   repo.ABTests,
			Analytics: repo.Analytics,
			Users:     repo.Users,
			Health:    repo,
			Backend:   "mongodb",
			close:     repo.Close,
		}, nil
	}

	return OpenSQLite(ctx, cfg.DatabaseURL)
}

func OpenSQLite(ctx context.Context, dbURL string) (*Store, error) {
	repo, err := sqlite.NewSQLiteRepository(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	return &Store{
		Linktrees: repo.Linktrees,
		ABTests:   repo.ABTests,
		Analytics: repo.Analytics,
		Users:     repo.Users,
		Health:    repo,
		Backend:   "sqlite",
		close:     repo.Close,
	}, nil
}
