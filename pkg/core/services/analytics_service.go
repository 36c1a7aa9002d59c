package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
	// Keeps (page-1)*limit far from overflowing the store's offset.
	MaxPage          = 1_000_000

	summaryConcurrency = 4
)

type AnalyticsService struct {
	repo      ports.AnalyticsRepository
	linktrees ports.LinktreeService
	now       func() time.Time
}

func NewAnalyticsService(repo ports.AnalyticsRepository, linktrees ports.LinktreeService) *AnalyticsService {
	return &AnalyticsService{repo: repo, linktrees: linktrees, now: time.Now}
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// Ingest stores one click. The linktree may be given by id or slug and is
// stored under its canonical id. The timestamp is always the server's.
func (s *AnalyticsService) Ingest(ctx context.Context, in ports.IngestInput) (string, error) {
	id, err := s.ingest(ctx, in)
	analyticsIngest.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"linktree": in.LinktreeRef,
			"link_id":  in.LinkID,
		}).WithError(err).Warn("Failed to track analytics")
	}
	return id, err
}

func (s *AnalyticsService) ingest(ctx context.Context, in ports.IngestInput) (string, error) {
	if in.LinktreeRef == "" || in.LinkID == "" {
		return "", domain.InvalidInput("Missing required parameters")
	}
	lt, err := s.linktrees.ResolveRef(ctx, in.LinktreeRef)
	if err != nil {
		return "", err
	}

	ev := &domain.AnalyticsEvent{
		ID:         uuid.NewString(),
		LinktreeID: lt.ID,
		LinkID:     in.LinkID,
		Timestamp:  s.now().UTC(),
		IP:         orUnknown(in.IP),
		UserAgent:  orUnknown(in.UserAgent),
		Referrer:   in.Referrer,
		Country:    domain.UnknownLocation,
		City:       domain.UnknownLocation,
	}
	if err := s.repo.Insert(ctx, ev); err != nil {
		return "", err
	}
	return ev.ID, nil
}

// Query pages through raw events of one owned linktree, or of all the
// caller's linktrees when no linktree is given.
func (s *AnalyticsService) Query(ctx context.Context, userID string, q ports.AnalyticsQuery) (*domain.EventPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return nil, domain.InvalidInput("page is too large")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	end := q.End
	if q.Start != nil && end == nil {
		now := s.now().UTC()
		end = &now
	}
	if q.Start != nil && end.Before(*q.Start) {
		return nil, domain.InvalidInput("endDate must not be before startDate")
	}

	ids, err := s.ownedIDs(ctx, userID, q.LinktreeRef)
	if err != nil {
		return nil, err
	}

	result := &domain.EventPage{Events: []domain.AnalyticsEvent{}, Page: page, Limit: limit}
	if len(ids) == 0 {
		return result, nil
	}

	events, total, err := s.repo.Query(ctx, domain.EventQuery{
		LinktreeIDs: ids,
		Start:       q.Start,
		End:         end,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	if events != nil {
		result.Events = events
	}
	result.Total = total
	result.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	return result, nil
}

// Report builds the dashboard view of one linktree over rangeDays days.
func (s *AnalyticsService) Report(ctx context.Context, userID, linktreeRef string, rangeDays int) (*domain.LinktreeReport, error) {
	if rangeDays <= 0 {
		rangeDays = DefaultRangeDays
	}
	lt, err := s.linktrees.Get(ctx, userID, linktreeRef)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	start := WindowStart(now, rangeDays)
	events, _, err := s.repo.Query(ctx, domain.EventQuery{
		LinktreeIDs: []string{lt.ID},
		Start:       &start,
		End:         &now,
	})
	if err != nil {
		return nil, err
	}

	return &domain.LinktreeReport{
		LinktreeID:  lt.ID,
		RangeDays:   rangeDays,
		TotalClicks: int64(len(events)),
		Daily:       BucketByDay(events, rangeDays, now),
		Links:       BucketByLink(events, lt.SortedLinks()),
	}, nil
}

// Summary computes per linktree click totals for the dashboard overview.
func (s *AnalyticsService) Summary(ctx context.Context, userID string, rangeDays int) ([]domain.LinktreeStats, error) {
	if rangeDays <= 0 {
		rangeDays = DefaultRangeDays
	}
	trees, err := s.linktrees.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	windowStart := WindowStart(now, rangeDays)
	from := windowStart
	if yesterday.Before(from) {
		from = yesterday
	}

	stats := make([]domain.LinktreeStats, len(trees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, lt := range trees {
		g.Go(func() error {
			events, _, err := s.repo.Query(gctx, domain.EventQuery{
				LinktreeIDs: []string{lt.ID},
				Start:       &from,
				End:         &now,
			})
			if err != nil {
				return err
			}

			st := domain.LinktreeStats{LinktreeID: lt.ID, Title: lt.Title, Slug: lt.Slug}
			for _, ev := range events {
				ts := ev.Timestamp.UTC()
				if !ts.Before(windowStart) {
					st.TotalClicks++
				}
				switch {
				case !ts.Before(today):
					st.ClicksToday++
				case !ts.Before(yesterday):
					st.ClicksYesterday++
				}
			}
			st.PercentChange = PercentChange(st.ClicksToday, st.ClicksYesterday)
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AnalyticsService) ownedIDs(ctx context.Context, userID, ref string) ([]string, error) {
	if ref != "" {
		lt, err := s.linktrees.Get(ctx, userID, ref)
		if err != nil {
			return nil, err
		}
		return []string{lt.ID}, nil
	}

	trees, err := s.linktrees.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(trees))
	for _, lt := range trees {
		ids = append(ids, lt.ID)
	}
	return ids, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
