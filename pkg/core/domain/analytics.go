package domain

import "time"

const (
	// UnknownLocation fills country and city; there is no geo lookup.
	UnknownLocation = "Unknown"
	// DeletedLinkTitle labels clicks on links no longer in the linktree.
	DeletedLinkTitle = "Deleted Link"
)

// AnalyticsEvent is a single click on a linktree link. Immutable once stored.
type AnalyticsEvent struct {
	ID         string    `json:"id" bson:"_id"`
	LinktreeID string    `json:"linktreeId" bson:"linktreeId"`
	LinkID     string    `json:"linkId" bson:"linkId"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	IP         string    `json:"ip" bson:"ip"`
	UserAgent  string    `json:"userAgent" bson:"userAgent"`
	Referrer   string    `json:"referrer" bson:"referrer"`
	Country    string    `json:"country" bson:"country"`
	City       string    `json:"city" bson:"city"`
}

// EventQuery selects analytics events. Limit 0 means no limit.
type EventQuery struct {
	LinktreeIDs []string
	Start       *time.Time
	End         *time.Time
	Page        int
	Limit       int
}

type EventPage struct {
	Events     []AnalyticsEvent `json:"events"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int64  `json:"count"`
}

type LinkCount struct {
	LinkID string `json:"linkId"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Count  int64  `json:"count"`
}

type LinktreeReport struct {
	LinktreeID  string       `json:"linktreeId"`
	RangeDays   int          `json:"rangeDays"`
	TotalClicks int64        `json:"totalClicks"`
	Daily       []DailyCount `json:"daily"`
	Links       []LinkCount  `json:"links"`
}

type LinktreeStats struct {
	LinktreeID      string  `json:"linktreeId"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	TotalClicks     int64   `json:"totalClicks"`
	ClicksToday     int64   `json:"clicksToday"`
	ClicksYesterday int64   `json:"clicksYesterday"`
	PercentChange   float64 `json:"percentChange"`
}
