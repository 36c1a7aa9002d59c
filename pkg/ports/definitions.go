package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

// Repositories return (nil, nil) when a single record lookup finds nothing.

// LinktreeRepository stores linktrees together with their embedded links.
type LinktreeRepository interface {
	Create(ctx context.Context, lt *domain.Linktree) error // conflict when the slug is taken
	GetByID(ctx context.Context, id string) (*domain.Linktree, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Linktree, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Linktree, error) // newest first
	Update(ctx context.Context, lt *domain.Linktree) error                    // whole document, last write wins
	Delete(ctx context.Context, id string) error
	// UnsetDefault clears isDefault on every linktree of userID except exceptID.
	UnsetDefault(ctx context.Context, userID, exceptID string) error
	Dump(ctx context.Context) ([]domain.Linktree, error) // For migration
}

type ABTestRepository interface {
	Create(ctx context.Context, t *domain.ABTest) error
	GetByID(ctx context.Context, id string) (*domain.ABTest, error)
	// FindActiveByLink returns the active test for linkID without counters.
	// With several active tests the latest startDate wins.
	FindActiveByLink(ctx context.Context, linkID string) (*domain.ActiveTest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ABTest, error) // startDate desc
	UpdateStatus(ctx context.Context, id string, status domain.TestStatus, endDate *time.Time) error
	// IncrementVariant adds one to the metric counter of an active test's
	// variant. It reports false when no active test holds that variant.
	IncrementVariant(ctx context.Context, testID, variantID string, metric domain.MetricType) (bool, error)
}

type AnalyticsRepository interface {
	Insert(ctx context.Context, ev *domain.AnalyticsEvent) error
	// Query returns matching events newest first and the total match count.
	Query(ctx context.Context, q domain.EventQuery) ([]domain.AnalyticsEvent, int64, error)
	DeleteByLinktree(ctx context.Context, linktreeID string) (int64, error)
}

type UserRepository interface {
	// UpsertByEmail creates the user on first sign in. A returning user keeps
	// the stored id and profile.
	UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RateLimiter reports whether another request for key fits in the window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LinktreeInput carries the create/update fields of a linktree. Nil pointers
// are left untouched on update.
type LinktreeInput struct {
	Title     *string
	Slug      *string
	Theme     *string
	IsDefault *bool
	IsPublic  *bool
	Footer    *string
}

type LinkInput struct {
	Title   *string
	URL     *string
	Icon    *string
	Enabled *bool
	Order   *int
}

type LinkOrder struct {
	ID    string
	Order int
}

// LinktreeService is the Linktree Directory.
type LinktreeService interface {
	List(ctx context.Context, userID string) ([]domain.LinktreeSummary, error)
	Create(ctx context.Context, userID string, in LinktreeInput) (*domain.Linktree, error)
	Get(ctx context.Context, userID, ref string) (*domain.Linktree, error)
	Update(ctx context.Context, userID, ref string, in LinktreeInput) (*domain.Linktree, error)
	Delete(ctx context.Context, userID, ref string) error
	AddLink(ctx context.Context, userID, ref string, in LinkInput) (*domain.Link, error)
	UpdateLink(ctx context.Context, userID, ref, linkID string, in LinkInput) (*domain.Link, error)
	DeleteLink(ctx context.Context, userID, ref, linkID string) error
	ReorderLinks(ctx context.Context, userID, ref string, order []LinkOrder) (*domain.Linktree, error)
	// ResolveRef looks a linktree up by id or slug with no ownership check.
	ResolveRef(ctx context.Context, ref string) (*domain.Linktree, error)
}

type CreateTestInput struct {
	Name       string
	LinktreeID string
	LinkID     string
	Variants   []VariantInput
}

type VariantInput struct {
	Title string
	URL   string
}

// ABTestService is the A/B Test Engine.
type ABTestService interface {
	LookupActiveTest(ctx context.Context, linkID string) (*domain.ActiveTest, error)
	ChooseVariant(t *domain.ActiveTest) (domain.PublicVariant, bool)
	RecordImpression(ctx context.Context, testID, variantID string) error
	RecordClick(ctx context.Context, testID, variantID string) error
	RecordEvent(ctx context.Context, testID, variantID string, metric domain.MetricType) error
	GetMetrics(ctx context.Context, userID, testID string) (*domain.TestMetrics, error)
	CreateTest(ctx context.Context, userID string, in CreateTestInput) (*domain.ABTest, error)
	UpdateStatus(ctx context.Context, userID, testID string, status domain.TestStatus) (*domain.ABTest, error)
	ListTests(ctx context.Context, userID string) ([]domain.ABTest, error)
}

type IngestInput struct {
	LinktreeRef string
	LinkID      string
	Referrer    string
	IP          string
	UserAgent   string
}

type AnalyticsQuery struct {
	LinktreeRef string
	Start       *time.Time
	End         *time.Time
	Page        int
	Limit       int
}

// AnalyticsService is the Analytics Aggregator.
type AnalyticsService interface {
	Ingest(ctx context.Context, in IngestInput) (string, error)
	Query(ctx context.Context, userID string, q AnalyticsQuery) (*domain.EventPage, error)
	Report(ctx context.Context, userID, linktreeRef string, rangeDays int) (*domain.LinktreeReport, error)
	Summary(ctx context.Context, userID string, rangeDays int) ([]domain.LinktreeStats, error)
}

// ResolverService is the Public Resolver.
type ResolverService interface {
	Resolve(ctx context.Context, slug, viewerID string) (*domain.PublicView, error)
}

type UserService interface {
	UpsertIdentity(ctx context.Context, email, name, image string) (*domain.User, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, name, email, image *string) (*domain.User, error)
}
