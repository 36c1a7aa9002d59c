package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"7days", 7, false},
		{"30days", 30, false},
		{"90", 90, false},
		{"365days", 365, false},
		{"0days", 0, true},
		{"366days", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucketByDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	events := []domain.AnalyticsEvent{
		{Timestamp: time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 10, 14, 59, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 8, 23, 59, 59, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)}, // outside the window
	}

	got := BucketByDay(events, 3, now)
	assert.Equal(t, []domain.DailyCount{
		{Date: "2024-03-08", Count: 1},
		{Date: "2024-03-09", Count: 0},
		{Date: "2024-03-10", Count: 2},
	}, got)
}

func TestBucketByDayUsesUTC(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	// 2024-03-10 02:00 in Bangkok is still the 9th in UTC.
	events := []domain.AnalyticsEvent{{Timestamp: time.Date(2024, 3, 10, 2, 0, 0, 0, bangkok)}}

	got := BucketByDay(events, 2, now)
	assert.Equal(t, int64(1), got[0].Count)
	assert.Equal(t, "2024-03-09", got[0].Date)
	assert.Equal(t, int64(0), got[1].Count)
}

func TestBucketByDayEmpty(t *testing.T) {
	got := BucketByDay(nil, 7, time.Now())
	assert.Len(t, got, 7)
	for _, d := range got {
		assert.Zero(t, d.Count)
	}
	assert.Empty(t, BucketByDay(nil, 0, time.Now()))
}

func TestBucketByLink(t *testing.T) {
	links := []domain.Link{
		{ID: "a", Title: "Blog", URL: "https://blog.example.com"},
		{ID: "b", Title: "Shop", URL: "https://shop.example.com"},
	}
	events := []domain.AnalyticsEvent{
		{LinkID: "a"}, {LinkID: "x"}, {LinkID: "a"}, {LinkID: "y"}, {LinkID: "x"},
	}

	got := BucketByLink(events, links)
	assert.Equal(t, []domain.LinkCount{
		{LinkID: "a", Title: "Blog", URL: "https://blog.example.com", Count: 2},
		{LinkID: "b", Title: "Shop", URL: "https://shop.example.com", Count: 0},
		{LinkID: "x", Title: domain.DeletedLinkTitle, Count: 2},
		{LinkID: "y", Title: domain.DeletedLinkTitle, Count: 1},
	}, got)

	var sum int64
	for _, c := range got {
		sum += c.Count
	}
	assert.Equal(t, int64(len(events)), sum)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name             string
		today, yesterday int64
		want             float64
	}{
		{"no activity", 0, 0, 0},
		{"no baseline", 5, 0, 100},
		{"doubled", 4, 2, 100},
		{"halved", 1, 2, -50},
		{"dropped to zero", 0, 3, -100},
		{"flat", 3, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentChange(tt.today, tt.yesterday), 1e-9)
		})
	}
}
