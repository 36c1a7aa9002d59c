package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type LinktreeService struct {
	repo      ports.LinktreeRepository
	analytics ports.AnalyticsRepository
	now       func() time.Time
}

func NewLinktreeService(repo ports.LinktreeRepository, analytics ports.AnalyticsRepository) *LinktreeService {
	return &LinktreeService{repo: repo, analytics: analytics, now: time.Now}
}

var _ ports.LinktreeService = (*LinktreeService)(nil)

func (s *LinktreeService) List(ctx context.Context, userID string) ([]domain.LinktreeSummary, error) {
	trees, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LinktreeSummary, 0, len(trees))
	for i := range trees {
		out = append(out, trees[i].Summary())
	}
	return out, nil
}

func (s *LinktreeService) Create(ctx context.Context, userID string, in ports.LinktreeInput) (*domain.Linktree, error) {
	title, slug := deref(in.Title), deref(in.Slug)
	if strings.TrimSpace(title) == "" || slug == "" {
		return nil, domain.InvalidInput("Title and slug are required.")
	}
	if !domain.ValidSlug(slug) {
		return nil, domain.InvalidInput("Slug can only contain lowercase letters, numbers, and hyphens.")
	}

	// Check if slug exists. The unique index still decides concurrent creates.
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := s.now().UTC()
	lt := &domain.Linktree{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Slug:      slug,
		Theme:     domain.DefaultTheme,
		IsPublic:  true,
		Links:     []domain.Link{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Theme != nil && *in.Theme != "" {
		lt.Theme = *in.Theme
	}
	if in.IsDefault != nil {
		lt.IsDefault = *in.IsDefault
	}
	if in.IsPublic != nil {
		lt.IsPublic = *in.IsPublic
	}
	if in.Footer != nil {
		lt.Footer = *in.Footer
	}

	if err := s.repo.Create(ctx, lt); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	if lt.IsDefault {
		if err := s.repo.UnsetDefault(ctx, userID, lt.ID); err != nil {
			return nil, err
		}
	}
	return lt, nil
}

// ResolveRef accepts a canonical id or a slug.
func (s *LinktreeService) ResolveRef(ctx context.Context, ref string) (*domain.Linktree, error) {
	if ref == "" {
		return nil, domain.InvalidInput("Linktree is required")
	}

	var (
		lt  *domain.Linktree
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		if lt, err = s.repo.GetByID(ctx, ref); err != nil {
			return nil, err
		}
	}
	// Slugs may be shaped like a uuid.
	if lt == nil {
		if lt, err = s.repo.GetBySlug(ctx, ref); err != nil {
			return nil, err
		}
	}
	if lt == nil {
		return nil, domain.NotFound("Linktree not found")
	}
	return lt, nil
}

func (s *LinktreeService) Get(ctx context.Context, userID, ref string) (*domain.Linktree, error) {
	lt, err := s.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !lt.OwnedBy(userID) {
		return nil, domain.Forbidden("You do not have access to this linktree")
	}
	return lt, nil
}

func (s *LinktreeService) Update(ctx context.Context, userID, ref string, in ports.LinktreeInput) (*domain.Linktree, error) {
	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, domain.InvalidInput("Title cannot be empty.")
		}
		lt.Title = *in.Title
	}
	if in.Slug != nil && *in.Slug != lt.Slug {
		if !domain.ValidSlug(*in.Slug) {
			return nil, domain.InvalidInput("Slug can only contain lowercase letters, numbers, and hyphens.")
		}
		existing, err := s.repo.GetBySlug(ctx, *in.Slug)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrSlugTaken
		}
		lt.Slug = *in.Slug
	}
	if in.Theme != nil && *in.Theme != "" {
		lt.Theme = *in.Theme
	}
	if in.IsPublic != nil {
		lt.IsPublic = *in.IsPublic
	}
	if in.Footer != nil {
		lt.Footer = *in.Footer
	}
	if in.IsDefault != nil {
		lt.IsDefault = *in.IsDefault
	}

	if err := s.save(ctx, lt); err != nil {
		return nil, err
	}
	if in.IsDefault != nil && *in.IsDefault {
		if err := s.repo.UnsetDefault(ctx, userID, lt.ID); err != nil {
			return nil, err
		}
	}
	return lt, nil
}

// Delete removes the linktree's analytics first so a failure never leaves
// events pointing at a missing linktree.
func (s *LinktreeService) Delete(ctx context.Context, userID, ref string) error {
	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return err
	}
	if _, err := s.analytics.DeleteByLinktree(ctx, lt.ID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, lt.ID)
}

func (s *LinktreeService) AddLink(ctx context.Context, userID, ref string, in ports.LinkInput) (*domain.Link, error) {
	title, url := deref(in.Title), deref(in.URL)
	if strings.TrimSpace(title) == "" || url == "" {
		return nil, domain.InvalidInput("Title and URL are required.")
	}

	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	link := domain.Link{
		ID:      uuid.NewString(),
		Title:   title,
		URL:     url,
		Icon:    deref(in.Icon),
		Enabled: true,
		Order:   len(lt.Links),
	}
	if in.Enabled != nil {
		link.Enabled = *in.Enabled
	}
	if in.Order != nil {
		link.Order = *in.Order
	}
	lt.Links = append(lt.Links, link)

	if err := s.save(ctx, lt); err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *LinktreeService) UpdateLink(ctx context.Context, userID, ref, linkID string, in ports.LinkInput) (*domain.Link, error) {
	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	i := lt.FindLink(linkID)
	if i < 0 {
		return nil, domain.NotFound("Link not found")
	}

	link := &lt.Links[i]
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, domain.InvalidInput("Title cannot be empty.")
		}
		link.Title = *in.Title
	}
	if in.URL != nil {
		if *in.URL == "" {
			return nil, domain.InvalidInput("URL cannot be empty.")
		}
		link.URL = *in.URL
	}
	if in.Icon != nil {
		link.Icon = *in.Icon
	}
	if in.Enabled != nil {
		link.Enabled = *in.Enabled
	}
	if in.Order != nil {
		link.Order = *in.Order
	}

	if err := s.save(ctx, lt); err != nil {
		return nil, err
	}
	updated := lt.Links[i]
	return &updated, nil
}

func (s *LinktreeService) DeleteLink(ctx context.Context, userID, ref, linkID string) error {
	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return err
	}
	i := lt.FindLink(linkID)
	if i < 0 {
		return domain.NotFound("Link not found")
	}
	lt.Links = append(lt.Links[:i], lt.Links[i+1:]...)
	return s.save(ctx, lt)
}

func (s *LinktreeService) ReorderLinks(ctx context.Context, userID, ref string, order []ports.LinkOrder) (*domain.Linktree, error) {
	lt, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	for _, o := range order {
		i := lt.FindLink(o.ID)
		if i < 0 {
			return nil, domain.InvalidInput("Unknown link id " + o.ID)
		}
		lt.Links[i].Order = o.Order
	}
	if err := s.save(ctx, lt); err != nil {
		return nil, err
	}
	return lt, nil
}

func (s *LinktreeService) save(ctx context.Context, lt *domain.Linktree) error {
	lt.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, lt); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.ErrSlugTaken
		}
		return err
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
