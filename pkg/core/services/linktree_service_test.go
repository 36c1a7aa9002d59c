package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

func TestCreateLinktree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)

	lt, err := svc.Create(ctx, "u1", ports.LinktreeInput{Title: ptr("Me"), Slug: ptr("me")})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTheme, lt.Theme)
	assert.True(t, lt.IsPublic)
	assert.Empty(t, lt.Links)

	_, err = svc.Create(ctx, "u2", ports.LinktreeInput{Title: ptr("Also me"), Slug: ptr("me")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "This URL slug is already taken.", domain.MessageOf(err))

	_, err = svc.Create(ctx, "u1", ports.LinktreeInput{Title: ptr("Bad"), Slug: ptr("Not Valid")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", ports.LinktreeInput{Slug: ptr("no-title")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConcurrentCreateSameSlug(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, "u1", ports.LinktreeInput{Title: ptr("Race"), Slug: ptr("race")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, fail)
}

func TestSingleDefaultLinktree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)

	first, err := svc.Create(ctx, "u1", ports.LinktreeInput{Title: ptr("One"), Slug: ptr("one"), IsDefault: ptr(true)})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u1", ports.LinktreeInput{Title: ptr("Two"), Slug: ptr("two"), IsDefault: ptr(true)})
	require.NoError(t, err)
	other, err := svc.Create(ctx, "u2", ports.LinktreeInput{Title: ptr("Other"), Slug: ptr("other"), IsDefault: ptr(true)})
	require.NoError(t, err)

	defaults := func(userID string) []string {
		list, err := svc.List(ctx, userID)
		require.NoError(t, err)
		var ids []string
		for _, s := range list {
			if s.IsDefault {
				ids = append(ids, s.ID)
			}
		}
		return ids
	}
	assert.Equal(t, []string{second.ID}, defaults("u1"))
	assert.Equal(t, []string{other.ID}, defaults("u2"))

	_, err = svc.Update(ctx, "u1", first.Slug, ports.LinktreeInput{IsDefault: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, defaults("u1"))
}

func TestLinktreeAccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)
	lt := createLinktree(t, svc, "owner", "mine")

	got, err := svc.Get(ctx, "owner", "mine")
	require.NoError(t, err)
	assert.Equal(t, lt.ID, got.ID)

	got, err = svc.Get(ctx, "owner", lt.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Slug)

	_, err = svc.Get(ctx, "stranger", "mine")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, "owner", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, "stranger", "mine")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUUIDShapedSlug(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)

	for _, slug := range []string{
		"0123456789abcdef0123456789abcdef",
		"123e4567-e89b-12d3-a456-426614174000",
	} {
		t.Run(slug, func(t *testing.T) {
			lt := createLinktree(t, svc, "owner", slug)

			got, err := svc.Get(ctx, "owner", slug)
			require.NoError(t, err)
			assert.Equal(t, lt.ID, got.ID)

			got, err = svc.Get(ctx, "owner", lt.ID)
			require.NoError(t, err)
			assert.Equal(t, slug, got.Slug)

			require.NoError(t, svc.Delete(ctx, "owner", slug))
			_, err = svc.Get(ctx, "owner", lt.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestUpdateLinktreeSlug(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)
	createLinktree(t, svc, "u1", "taken")
	lt := createLinktree(t, svc, "u1", "before")

	_, err := svc.Update(ctx, "u1", "before", ports.LinktreeInput{Slug: ptr("taken")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := svc.Update(ctx, "u1", "before", ports.LinktreeInput{
		Slug:     ptr("after"),
		Theme:    ptr("dark"),
		IsPublic: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Slug)
	assert.Equal(t, "dark", updated.Theme)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, lt.Title, updated.Title)

	_, err = svc.Get(ctx, "u1", "before")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLinkEditing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)
	lt := createLinktree(t, svc, "u1", "links")

	a := addLink(t, svc, "u1", "links", "a")
	b := addLink(t, svc, "u1", "links", "b")
	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)
	assert.True(t, a.Enabled)

	updated, err := svc.UpdateLink(ctx, "u1", lt.ID, a.ID, ports.LinkInput{Enabled: ptr(false), Title: ptr("A!")})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, "A!", updated.Title)
	assert.Equal(t, a.URL, updated.URL)

	reordered, err := svc.ReorderLinks(ctx, "u1", "links", []ports.LinkOrder{{ID: a.ID, Order: 5}, {ID: b.ID, Order: 1}})
	require.NoError(t, err)
	sorted := reordered.SortedLinks()
	assert.Equal(t, b.ID, sorted[0].ID)
	assert.Equal(t, a.ID, sorted[1].ID)

	_, err = svc.ReorderLinks(ctx, "u1", "links", []ports.LinkOrder{{ID: "ghost", Order: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, svc.DeleteLink(ctx, "u1", "links", a.ID))
	err = svc.DeleteLink(ctx, "u1", "links", a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.Get(ctx, "u1", "links")
	require.NoError(t, err)
	require.Len(t, got.Links, 1)
	assert.Equal(t, b.ID, got.Links[0].ID)
}

func TestDeleteLinktreeRemovesAnalytics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewLinktreeService(store.Linktrees, store.Analytics)
	doomed := createLinktree(t, svc, "u1", "doomed")
	kept := createLinktree(t, svc, "u1", "kept")

	for _, id := range []string{doomed.ID, doomed.ID, kept.ID} {
		require.NoError(t, store.Analytics.Insert(ctx, &domain.AnalyticsEvent{
			ID:         uuid.NewString(),
			LinktreeID: id,
			LinkID:     "l",
			Timestamp:  time.Now(),
		}))
	}

	require.NoError(t, svc.Delete(ctx, "u1", "doomed"))

	_, err := svc.Get(ctx, "u1", "doomed")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err := store.Analytics.Query(ctx, domain.EventQuery{LinktreeIDs: []string{doomed.ID}})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = store.Analytics.Query(ctx, domain.EventQuery{LinktreeIDs: []string{kept.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
