package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

// newTestStore opens a private in-memory SQLite database.
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.OpenSQLite(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func createLinktree(t *testing.T, svc *LinktreeService, userID, slug string) *domain.Linktree {
	t.Helper()
	lt, err := svc.Create(context.Background(), userID, ports.LinktreeInput{
		Title: ptr("Links of " + userID),
		Slug:  ptr(slug),
	})
	require.NoError(t, err)
	return lt
}

func addLink(t *testing.T, svc *LinktreeService, userID, ref, title string) *domain.Link {
	t.Helper()
	link, err := svc.AddLink(context.Background(), userID, ref, ports.LinkInput{
		Title: ptr(title),
		URL:   ptr("https://example.com/" + title),
	})
	require.NoError(t, err)
	return link
}
