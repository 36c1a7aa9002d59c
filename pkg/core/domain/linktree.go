package domain

import (
	"regexp"
	"sort"
	"time"
)

// DefaultTheme is applied when a linktree is created without one.
const DefaultTheme = "light"

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether s can be used as a linktree slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Linktree is a user owned page holding an ordered list of outbound links.
type Linktree struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Title     string    `json:"title" bson:"title"`
	Slug      string    `json:"slug" bson:"slug"`
	Theme     string    `json:"theme" bson:"theme"`
	IsDefault bool      `json:"isDefault" bson:"isDefault"`
	IsPublic  bool      `json:"isPublic" bson:"isPublic"`
	Footer    string    `json:"footer" bson:"footer"`
	Links     []Link    `json:"links" bson:"links"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Link is embedded in its Linktree and never stored on its own.
type Link struct {
	ID      string `json:"id" bson:"_id"`
	Title   string `json:"title" bson:"title"`
	URL     string `json:"url" bson:"url"`
	Icon    string `json:"icon,omitempty" bson:"icon,omitempty"`
	Enabled bool   `json:"enabled" bson:"enabled"`
	Order   int    `json:"order" bson:"order"`
}

// OwnedBy reports whether userID owns the linktree.
func (l *Linktree) OwnedBy(userID string) bool {
	return userID != "" && l.UserID == userID
}

// FindLink returns the index of the link with the given id, or -1.
func (l *Linktree) FindLink(linkID string) int {
	for i := range l.Links {
		if l.Links[i].ID == linkID {
			return i
		}
	}
	return -1
}

// SortedLinks returns a copy of the links sorted by Order. Links sharing an
// Order keep their array position.
func (l *Linktree) SortedLinks() []Link {
	out := make([]Link, len(l.Links))
	copy(out, l.Links)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// VisibleLinks is SortedLinks without the disabled ones.
func (l *Linktree) VisibleLinks() []Link {
	sorted := l.SortedLinks()
	out := make([]Link, 0, len(sorted))
	for _, link := range sorted {
		if link.Enabled {
			out = append(out, link)
		}
	}
	return out
}

// LinktreeSummary is the list projection shown on the dashboard.
type LinktreeSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Theme     string    `json:"theme"`
	IsDefault bool      `json:"isDefault"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *Linktree) Summary() LinktreeSummary {
	return LinktreeSummary{
		ID:        l.ID,
		Title:     l.Title,
		Slug:      l.Slug,
		Theme:     l.Theme,
		IsDefault: l.IsDefault,
		IsPublic:  l.IsPublic,
		CreatedAt: l.CreatedAt,
	}
}

// PublicView is what an anonymous visitor receives for a slug.
type PublicView struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Slug       string       `json:"slug"`
	Theme      string       `json:"theme"`
	Footer     string       `json:"footer"`
	OwnerName  string       `json:"ownerName,omitempty"`
	OwnerImage string       `json:"ownerImage,omitempty"`
	Links      []PublicLink `json:"links"`
}

// PublicLink carries TestID and VariantID when the title and url come from
// an A/B test variant, so the client can report the click against it.
type PublicLink struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Icon      string `json:"icon,omitempty"`
	Order     int    `json:"order"`
	TestID    string `json:"testId,omitempty"`
	VariantID string `json:"variantId,omitempty"`
}
