package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

// ABTestService assigns variants to visitors and keeps per variant counters.
//
// Variants are picked uniformly and independently on every render. There is
// no sticky assignment: a visitor reloading the page may see another variant.
type ABTestService struct {
	repo      ports.ABTestRepository
	linktrees ports.LinktreeRepository
	intn      func(n int) int
	now       func() time.Time
}

func NewABTestService(repo ports.ABTestRepository, linktrees ports.LinktreeRepository) *ABTestService {
	return &ABTestService{
		repo:      repo,
		linktrees: linktrees,
		intn:      rand.IntN,
		now:       time.Now,
	}
}

var _ ports.ABTestService = (*ABTestService)(nil)

func (s *ABTestService) LookupActiveTest(ctx context.Context, linkID string) (*domain.ActiveTest, error) {
	t, err := s.repo.FindActiveByLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("No active A/B test for this link")
	}
	return t, nil
}

// ChooseVariant returns false only when the test has no variants.
func (s *ABTestService) ChooseVariant(t *domain.ActiveTest) (domain.PublicVariant, bool) {
	if t == nil || len(t.Variants) == 0 {
		return domain.PublicVariant{}, false
	}
	return t.Variants[s.intn(len(t.Variants))], true
}

func (s *ABTestService) RecordImpression(ctx context.Context, testID, variantID string) error {
	return s.record(ctx, testID, variantID, domain.MetricImpression)
}

func (s *ABTestService) RecordClick(ctx context.Context, testID, variantID string) error {
	return s.record(ctx, testID, variantID, domain.MetricClick)
}

// RecordEvent is the untyped entry point used by the public metrics endpoint.
func (s *ABTestService) RecordEvent(ctx context.Context, testID, variantID string, metric domain.MetricType) error {
	if variantID == "" || !metric.Valid() {
		return domain.InvalidInput("Invalid parameters")
	}
	return s.record(ctx, testID, variantID, metric)
}

func (s *ABTestService) record(ctx context.Context, testID, variantID string, metric domain.MetricType) error {
	ok, err := s.repo.IncrementVariant(ctx, testID, variantID, metric)
	if err == nil && !ok {
		err = domain.NotFound("A/B test not found or not active")
	}
	abTestEvents.WithLabelValues(string(metric), resultLabel(err)).Inc()

	if err != nil {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"test_id":    testID,
			"variant_id": variantID,
			"type":       metric,
		}).WithError(err).Warn("Failed to record A/B test event")
		return err
	}
	return nil
}

// ComputeMetrics derives the per variant report. CTR is 0 for a variant
// without impressions.
func ComputeMetrics(t *domain.ABTest) []domain.VariantMetric {
	out := make([]domain.VariantMetric, 0, len(t.Variants))
	for _, v := range t.Variants {
		var ctr float64
		if v.Impressions > 0 {
			ctr = float64(v.Clicks) / float64(v.Impressions) * 100
		}
		out = append(out, domain.VariantMetric{
			VariantID:   v.ID,
			Title:       v.Title,
			Impressions: v.Impressions,
			Clicks:      v.Clicks,
			CTR:         ctr,
		})
	}
	return out
}

// ComputeWinner picks the highest CTR of a completed test. Ties go to the
// variant listed first.
func ComputeWinner(t *domain.ABTest, metrics []domain.VariantMetric) *domain.VariantMetric {
	if t.Status != domain.TestCompleted || len(metrics) == 0 {
		return nil
	}
	best := metrics[0]
	for _, m := range metrics[1:] {
		if m.CTR > best.CTR {
			best = m
		}
	}
	return &best
}

func (s *ABTestService) GetMetrics(ctx context.Context, userID, testID string) (*domain.TestMetrics, error) {
	t, err := s.ownedTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	metrics := ComputeMetrics(t)
	return &domain.TestMetrics{
		Metrics:   metrics,
		Winner:    ComputeWinner(t, metrics),
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Status:    t.Status,
	}, nil
}

func (s *ABTestService) CreateTest(ctx context.Context, userID string, in ports.CreateTestInput) (*domain.ABTest, error) {
	if strings.TrimSpace(in.Name) == "" || in.LinktreeID == "" || in.LinkID == "" {
		return nil, domain.InvalidInput("Missing required fields")
	}
	if len(in.Variants) < 2 {
		return nil, domain.InvalidInput("An A/B test needs at least two variants")
	}
	for _, v := range in.Variants {
		if strings.TrimSpace(v.Title) == "" || v.URL == "" {
			return nil, domain.InvalidInput("Every variant needs a title and a url")
		}
	}

	lt, err := s.linktrees.GetByID(ctx, in.LinktreeID)
	if err != nil {
		return nil, err
	}
	if lt == nil {
		return nil, domain.NotFound("Linktree not found")
	}
	if !lt.OwnedBy(userID) {
		return nil, domain.Forbidden("You do not have access to this linktree")
	}
	if lt.FindLink(in.LinkID) < 0 {
		return nil, domain.NotFound("Link not found")
	}
	if err := s.ensureNoActiveTest(ctx, in.LinkID, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &domain.ABTest{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       in.Name,
		Status:     domain.TestActive,
		LinktreeID: lt.ID,
		LinkID:     in.LinkID,
		StartDate:  now,
		Variants:   make([]domain.Variant, 0, len(in.Variants)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, v := range in.Variants {
		t.Variants = append(t.Variants, domain.Variant{
			ID:    uuid.NewString(),
			Title: v.Title,
			URL:   v.URL,
		})
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateStatus allows any transition. Completing a test stamps its end date;
// reopening clears it.
func (s *ABTestService) UpdateStatus(ctx context.Context, userID, testID string, status domain.TestStatus) (*domain.ABTest, error) {
	if !status.Valid() {
		return nil, domain.InvalidInput("Status must be active, paused or completed")
	}
	t, err := s.ownedTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	if status == t.Status {
		return t, nil
	}
	if status == domain.TestActive {
		if err := s.ensureNoActiveTest(ctx, t.LinkID, t.ID); err != nil {
			return nil, err
		}
	}

	var end *time.Time
	if status == domain.TestCompleted {
		now := s.now().UTC()
		end = &now
	}
	if err := s.repo.UpdateStatus(ctx, t.ID, status, end); err != nil {
		return nil, err
	}
	t.Status = status
	t.EndDate = end
	return t, nil
}

func (s *ABTestService) ListTests(ctx context.Context, userID string) ([]domain.ABTest, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ABTestService) ownedTest(ctx context.Context, userID, testID string) (*domain.ABTest, error) {
	t, err := s.repo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("A/B test not found")
	}
	if t.UserID != userID {
		return nil, domain.Forbidden("You do not have access to this A/B test")
	}
	return t, nil
}

func (s *ABTestService) ensureNoActiveTest(ctx context.Context, linkID, exceptID string) error {
	active, err := s.repo.FindActiveByLink(ctx, linkID)
	if err != nil {
		return err
	}
	if active != nil && active.ID != exceptID {
		return domain.Conflict("This link already has an active A/B test")
	}
	return nil
}

// IsNotFound is a small helper for callers that treat a missing test as a
// normal outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
