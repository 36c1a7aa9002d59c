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

type UserService struct {
	repo ports.UserRepository
	now  func() time.Time
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

var _ ports.UserService = (*UserService)(nil)

// UpsertIdentity is called after a successful OAuth sign in.
func (s *UserService) UpsertIdentity(ctx context.Context, email, name, image string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.InvalidInput("The identity provider did not return an email")
	}
	now := s.now().UTC()
	return s.repo.UpsertByEmail(ctx, &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("User not found")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, email, image *string) (*domain.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, domain.InvalidInput("Name cannot be empty")
		}
		u.Name = *name
	}
	if email != nil {
		e := strings.ToLower(strings.TrimSpace(*email))
		if e == "" {
			return nil, domain.InvalidInput("Email cannot be empty")
		}
		if e != u.Email {
			other, err := s.repo.GetByEmail(ctx, e)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.Conflict("Email is already in use")
			}
			u.Email = e
		}
	}
	if image != nil {
		u.Image = *image
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("Email is already in use")
		}
		return nil, err
	}
	return u, nil
}
