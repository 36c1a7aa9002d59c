package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

const (
	DefaultRangeDays = 7
	MaxRangeDays     = 365
	dayLayout        = "2006-01-02"
)

// ParseRange accepts "7days", "30days", "90days" or a bare day count.
// Empty means DefaultRangeDays.
func ParseRange(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRangeDays, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "days"))
	if err != nil || n < 1 || n > MaxRangeDays {
		return 0, domain.InvalidInput("range must be between 1 and 365 days, e.g. 7days")
	}
	return n, nil
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowStart is midnight UTC of the first day of a rangeDays window ending
// on the day of now.
func WindowStart(now time.Time, rangeDays int) time.Time {
	return startOfDay(now).AddDate(0, 0, -(rangeDays - 1))
}

// BucketByDay counts events per UTC calendar day over the rangeDays days
// ending today. Every day gets an entry, oldest first, even with no events.
func BucketByDay(events []domain.AnalyticsEvent, rangeDays int, now time.Time) []domain.DailyCount {
	if rangeDays <= 0 {
		return []domain.DailyCount{}
	}

	start := WindowStart(now, rangeDays)
	out := make([]domain.DailyCount, rangeDays)
	index := make(map[string]int, rangeDays)
	for i := 0; i < rangeDays; i++ {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		out[i] = domain.DailyCount{Date: day}
		index[day] = i
	}

	for _, ev := range events {
		if i, ok := index[ev.Timestamp.UTC().Format(dayLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}

// BucketByLink counts events per link. Links come first in the order given,
// zero counts included. Events for links that no longer exist are kept in a
// "Deleted Link" bucket per link id, in the order they are first seen, so the
// counts always add up to len(events).
func BucketByLink(events []domain.AnalyticsEvent, links []domain.Link) []domain.LinkCount {
	out := make([]domain.LinkCount, 0, len(links))
	index := make(map[string]int, len(links))
	for _, l := range links {
		if _, dup := index[l.ID]; dup {
			continue
		}
		index[l.ID] = len(out)
		out = append(out, domain.LinkCount{LinkID: l.ID, Title: l.Title, URL: l.URL})
	}

	for _, ev := range events {
		i, ok := index[ev.LinkID]
		if !ok {
			i = len(out)
			index[ev.LinkID] = i
			out = append(out, domain.LinkCount{LinkID: ev.LinkID, Title: domain.DeletedLinkTitle})
		}
		out[i].Count++
	}
	return out
}

// PercentChange compares today against yesterday. Without a baseline any
// activity counts as +100%.
func PercentChange(today, yesterday int64) float64 {
	if yesterday > 0 {
		return float64(today-yesterday) / float64(yesterday) * 100
	}
	if today > 0 {
		return 100
	}
	return 0
}
