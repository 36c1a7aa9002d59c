package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

// SQLiteRepository owns the connection pool and hands out one repository per
// collection.
type SQLiteRepository struct {
	db *sql.DB

	Linktrees *LinktreeRepository
	ABTests   *ABTestRepository
	Analytics *AnalyticsRepository
	Users     *UserRepository
}

func NewSQLiteRepository(ctx context.Context, dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite" {
		// One writer at a time; also keeps shared in-memory databases alive.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, translate(err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{
		db:        db,
		Linktrees: &LinktreeRepository{db: db},
		ABTests:   &ABTestRepository{db: db},
		Analytics: &AnalyticsRepository{db: db},
		Users:     &UserRepository{db: db},
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS linktrees (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		theme TEXT NOT NULL DEFAULT 'light',
		is_default INTEGER NOT NULL DEFAULT 0,
		is_public INTEGER NOT NULL DEFAULT 1,
		footer TEXT NOT NULL DEFAULT '',
		links JSON NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_linktrees_user ON linktrees(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS ab_tests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		linktree_id TEXT NOT NULL,
		link_id TEXT NOT NULL,
		start_date INTEGER NOT NULL,
		end_date INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ab_tests_user ON ab_tests(user_id);
	CREATE INDEX IF NOT EXISTS idx_ab_tests_linktree ON ab_tests(linktree_id);
	CREATE INDEX IF NOT EXISTS idx_ab_tests_link_status ON ab_tests(link_id, status);

	CREATE TABLE IF NOT EXISTS ab_test_variants (
		test_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		impressions INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (test_id, id),
		FOREIGN KEY(test_id) REFERENCES ab_tests(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS analytics (
		id TEXT PRIMARY KEY,
		linktree_id TEXT NOT NULL,
		link_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		ip TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		referrer TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_analytics_linktree_ts ON analytics(linktree_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_analytics_link_ts ON analytics(link_id, timestamp DESC);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return translate(r.db.PingContext(ctx))
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// translate maps driver errors onto the domain error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		// The caller went away; nothing timed out.
		return fmt.Errorf("sqlite: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.KindTimeout, "Request timed out. Please try again later.", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return domain.Wrap(domain.KindUnavailable, "Database connection failed. Please try again later.", err)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return domain.Wrap(domain.KindConflict, "conflict", err)
	default:
		return fmt.Errorf("sqlite: %w", err)
	}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type scanner interface {
	Scan(dest ...any) error
}
