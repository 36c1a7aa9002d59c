package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

// ResolverService answers what an anonymous visitor sees for a slug.
type ResolverService struct {
	linktrees ports.LinktreeRepository
	users     ports.UserRepository
	engine    ports.ABTestService

	impressionTimeout time.Duration
}

func NewResolverService(linktrees ports.LinktreeRepository, users ports.UserRepository, engine ports.ABTestService) *ResolverService {
	return &ResolverService{
		linktrees:         linktrees,
		users:             users,
		engine:            engine,
		impressionTimeout: 8 * time.Second,
	}
}

var _ ports.ResolverService = (*ResolverService)(nil)

// Resolve returns the public view of a linktree. A private linktree is only
// visible to its owner; anyone else gets a forbidden error, distinct from
// not found.
//
// Links under an active A/B test show a randomly chosen variant and the
// impression is recorded here, at render time. Telemetry failures never
// fail the render.
func (s *ResolverService) Resolve(ctx context.Context, slug, viewerID string) (*domain.PublicView, error) {
	lt, err := s.linktrees.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if lt == nil {
		return nil, domain.NotFound("Linktree not found")
	}
	if !lt.IsPublic && !lt.OwnedBy(viewerID) {
		return nil, domain.Forbidden("This linktree is private")
	}

	view := &domain.PublicView{
		ID:     lt.ID,
		Title:  lt.Title,
		Slug:   lt.Slug,
		Theme:  lt.Theme,
		Footer: lt.Footer,
	}

	visible := lt.VisibleLinks()
	view.Links = make([]domain.PublicLink, 0, len(visible))
	for _, link := range visible {
		view.Links = append(view.Links, s.present(ctx, link))
	}

	s.decorateOwner(ctx, lt.UserID, view)
	return view, nil
}

func (s *ResolverService) present(ctx context.Context, link domain.Link) domain.PublicLink {
	pl := domain.PublicLink{
		ID:    link.ID,
		Title: link.Title,
		URL:   link.URL,
		Icon:  link.Icon,
		Order: link.Order,
	}

	test, err := s.engine.LookupActiveTest(ctx, link.ID)
	if err != nil {
		if !IsNotFound(err) {
			logger.GetAppLogger().WithField("link_id", link.ID).WithError(err).
				Warn("A/B test lookup failed, serving original link")
		}
		return pl
	}

	variant, ok := s.engine.ChooseVariant(test)
	if !ok {
		return pl
	}
	pl.Title = variant.Title
	pl.URL = variant.URL
	pl.TestID = test.ID
	pl.VariantID = variant.ID

	// A visitor hanging up must not drop the impression.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.impressionTimeout)
	defer cancel()
	// Already logged by the engine.
	_ = s.engine.RecordImpression(wctx, test.ID, variant.ID)
	return pl
}

func (s *ResolverService) decorateOwner(ctx context.Context, userID string, view *domain.PublicView) {
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"user_id": userID,
			"slug":    view.Slug,
		}).WithError(err).Debug("Owner lookup failed")
		return
	}
	if owner != nil {
		view.OwnerName = owner.Name
		view.OwnerImage = owner.Image
	}
}
