package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linktrees := NewLinktreeService(store.Linktrees, store.Analytics)
	engine := NewABTestService(store.ABTests, store.Linktrees)
	resolver := NewResolverService(store.Linktrees, store.Users, engine)

	users := NewUserService(store.Users)
	owner, err := users.UpsertIdentity(ctx, "Owner@Example.com", "Owner", "https://img.example.com/o.png")
	require.NoError(t, err)

	lt := createLinktree(t, linktrees, owner.ID, "site")
	shop := addLink(t, linktrees, owner.ID, "site", "shop")
	blog := addLink(t, linktrees, owner.ID, "site", "blog")
	hidden := addLink(t, linktrees, owner.ID, "site", "hidden")
	_, err = linktrees.UpdateLink(ctx, owner.ID, "site", hidden.ID, ports.LinkInput{Enabled: ptr(false)})
	require.NoError(t, err)
	_, err = linktrees.ReorderLinks(ctx, owner.ID, "site", []ports.LinkOrder{{ID: shop.ID, Order: 2}, {ID: blog.ID, Order: 1}})
	require.NoError(t, err)

	view, err := resolver.Resolve(ctx, "site", "")
	require.NoError(t, err)
	assert.Equal(t, lt.ID, view.ID)
	assert.Equal(t, "Owner", view.OwnerName)
	require.Len(t, view.Links, 2)
	assert.Equal(t, blog.ID, view.Links[0].ID)
	assert.Equal(t, shop.ID, view.Links[1].ID)
	assert.Empty(t, view.Links[0].TestID)

	_, err = resolver.Resolve(ctx, "nowhere", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = linktrees.Update(ctx, owner.ID, "site", ports.LinktreeInput{IsPublic: ptr(false)})
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, "site", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = resolver.Resolve(ctx, "site", "someone-else")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = resolver.Resolve(ctx, "site", owner.ID)
	assert.NoError(t, err)
}

func TestResolveServesVariant(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linktrees := NewLinktreeService(store.Linktrees, store.Analytics)
	engine := NewABTestService(store.ABTests, store.Linktrees)
	engine.intn = func(int) int { return 1 }
	resolver := NewResolverService(store.Linktrees, store.Users, engine)

	lt := createLinktree(t, linktrees, "owner", "ab")
	link := addLink(t, linktrees, "owner", "ab", "blog")
	test, err := engine.CreateTest(ctx, "owner", ports.CreateTestInput{
		Name: "titles", LinktreeID: lt.ID, LinkID: link.ID, Variants: twoVariants(),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		view, err := resolver.Resolve(ctx, "ab", "")
		require.NoError(t, err)
		require.Len(t, view.Links, 1)
		pl := view.Links[0]
		assert.Equal(t, link.ID, pl.ID)
		assert.Equal(t, test.ID, pl.TestID)
		assert.Equal(t, test.Variants[1].ID, pl.VariantID)
		assert.Equal(t, test.Variants[1].Title, pl.Title)
		assert.Equal(t, test.Variants[1].URL, pl.URL)
	}

	m, err := engine.GetMetrics(ctx, "owner", test.ID)
	require.NoError(t, err)
	assert.Zero(t, m.Metrics[0].Impressions)
	assert.Equal(t, int64(3), m.Metrics[1].Impressions)

	// Paused tests fall back to the stored link.
	_, err = engine.UpdateStatus(ctx, "owner", test.ID, domain.TestPaused)
	require.NoError(t, err)
	view, err := resolver.Resolve(ctx, "ab", "")
	require.NoError(t, err)
	assert.Equal(t, link.Title, view.Links[0].Title)
	assert.Empty(t, view.Links[0].VariantID)
}

type failingLookupRepo struct {
	ports.ABTestRepository
}

func (failingLookupRepo) FindActiveByLink(context.Context, string) (*domain.ActiveTest, error) {
	return nil, errors.New("connection reset")
}

func TestResolveFallsBackWhenLookupFails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	linktrees := NewLinktreeService(store.Linktrees, store.Analytics)
	engine := NewABTestService(store.ABTests, store.Linktrees)

	lt := createLinktree(t, linktrees, "owner", "me")
	link := addLink(t, linktrees, "owner", "me", "site")
	_, err := engine.CreateTest(ctx, "owner", ports.CreateTestInput{
		Name: "titles", LinktreeID: lt.ID, LinkID: link.ID, Variants: twoVariants(),
	})
	require.NoError(t, err)

	broken := NewABTestService(failingLookupRepo{store.ABTests}, store.Linktrees)
	resolver := NewResolverService(store.Linktrees, store.Users, broken)

	view, err := resolver.Resolve(ctx, "me", "")
	require.NoError(t, err)
	require.Len(t, view.Links, 1)
	assert.Equal(t, link.ID, view.Links[0].ID)
	assert.Equal(t, link.Title, view.Links[0].Title)
	assert.Equal(t, link.URL, view.Links[0].URL)
	assert.Empty(t, view.Links[0].TestID)
	assert.Empty(t, view.Links[0].VariantID)
}

// hangupEngine cancels the request context once the variant is chosen,
// like a visitor closing the tab mid-render.
type hangupEngine struct {
	ports.ABTestService
	cancel context.CancelFunc
}

func (e hangupEngine) ChooseVariant(t *domain.ActiveTest) (domain.PublicVariant, bool) {
	e.cancel()
	return e.ABTestService.ChooseVariant(t)
}

func TestResolveRecordsImpressionAfterHangup(t *testing.T) {
	store := newTestStore(t)
	linktrees := NewLinktreeService(store.Linktrees, store.Analytics)
	engine := NewABTestService(store.ABTests, store.Linktrees)
	engine.intn = func(int) int { return 0 }

	lt := createLinktree(t, linktrees, "owner", "gone")
	link := addLink(t, linktrees, "owner", "gone", "blog")
	test, err := engine.CreateTest(context.Background(), "owner", ports.CreateTestInput{
		Name: "titles", LinktreeID: lt.ID, LinkID: link.ID, Variants: twoVariants(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resolver := NewResolverService(store.Linktrees, store.Users, hangupEngine{ABTestService: engine, cancel: cancel})

	view, err := resolver.Resolve(ctx, "gone", "")
	require.NoError(t, err)
	require.Len(t, view.Links, 1)
	assert.Equal(t, test.Variants[0].ID, view.Links[0].VariantID)

	m, err := engine.GetMetrics(context.Background(), "owner", test.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Metrics[0].Impressions)
}
