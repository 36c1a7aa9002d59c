package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

func TestUpsertIdentity(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users)

	first, err := svc.UpsertIdentity(ctx, "Ada@Example.com", "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)

	_, err = svc.UpdateProfile(ctx, first.ID, ptr("Ada Lovelace"), nil, nil)
	require.NoError(t, err)

	again, err := svc.UpsertIdentity(ctx, "ada@example.com", "Ada", "https://img")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ada Lovelace", again.Name, "profile edits survive a new sign in")

	_, err = svc.UpsertIdentity(ctx, "  ", "Nobody", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestStore(t).Users)
	a, err := svc.UpsertIdentity(ctx, "a@example.com", "A", "")
	require.NoError(t, err)
	_, err = svc.UpsertIdentity(ctx, "b@example.com", "B", "")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, a.ID, nil, ptr("B@example.com"), nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.UpdateProfile(ctx, a.ID, ptr(" "), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	u, err := svc.UpdateProfile(ctx, a.ID, nil, ptr("new@example.com"), ptr("https://img"))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "https://img", u.Image)

	_, err = svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
