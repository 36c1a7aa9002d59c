package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"my-links", true},
		{"abc123", true},
		{"a", true},
		{"", false},
		{"My-Links", false},
		{"my links", false},
		{"my_links", false},
		{"émoji", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSlug(tt.slug))
		})
	}
}

func TestVisibleLinks(t *testing.T) {
	lt := &Linktree{Links: []Link{
		{ID: "c", Order: 2, Enabled: true},
		{ID: "a", Order: 0, Enabled: true},
		{ID: "hidden", Order: 1, Enabled: false},
		{ID: "b", Order: 1, Enabled: true},
		{ID: "b2", Order: 1, Enabled: true},
	}}

	var ids []string
	for _, l := range lt.VisibleLinks() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "b", "b2", "c"}, ids)

	// The stored slice is left in place.
	assert.Equal(t, "c", lt.Links[0].ID)
}

func TestOwnedBy(t *testing.T) {
	lt := &Linktree{UserID: "u1"}
	assert.True(t, lt.OwnedBy("u1"))
	assert.False(t, lt.OwnedBy("u2"))
	assert.False(t, (&Linktree{}).OwnedBy(""))
}

func TestFindLink(t *testing.T) {
	lt := &Linktree{Links: []Link{{ID: "x"}, {ID: "y"}}}
	assert.Equal(t, 1, lt.FindLink("y"))
	assert.Equal(t, -1, lt.FindLink("z"))
}
