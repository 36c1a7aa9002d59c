package domain

import "time"

type TestStatus string

const (
	TestActive    TestStatus = "active"
	TestPaused    TestStatus = "paused"
	TestCompleted TestStatus = "completed"
)

func (s TestStatus) Valid() bool {
	switch s {
	case TestActive, TestPaused, TestCompleted:
		return true
	}
	return false
}

// MetricType is the kind of counter an A/B test event increments.
type MetricType string

const (
	MetricImpression MetricType = "impression"
	MetricClick      MetricType = "click"
)

func (m MetricType) Valid() bool {
	return m == MetricImpression || m == MetricClick
}

// ABTest runs alternative titles/urls for one link of a linktree.
// LinkID is not enforced; the link may be deleted while the test lives on.
type ABTest struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"userId" bson:"userId"`
	Name       string     `json:"name" bson:"name"`
	Status     TestStatus `json:"status" bson:"status"`
	LinktreeID string     `json:"linktreeId" bson:"linktreeId"`
	LinkID     string     `json:"linkId" bson:"linkId"`
	StartDate  time.Time  `json:"startDate" bson:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Variants   []Variant  `json:"variants" bson:"variants"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Variant ids are only unique inside their test.
type Variant struct {
	ID          string `json:"id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	URL         string `json:"url" bson:"url"`
	Impressions int64  `json:"impressions" bson:"impressions"`
	Clicks      int64  `json:"clicks" bson:"clicks"`
}

// ActiveTest is the visitor facing projection of a test. It never carries
// counters.
type ActiveTest struct {
	ID       string          `json:"id" bson:"_id"`
	Status   TestStatus      `json:"status" bson:"status"`
	Variants []PublicVariant `json:"variants" bson:"variants"`
}

type PublicVariant struct {
	ID    string `json:"id" bson:"_id"`
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

// VariantMetric is one row of a test report. CTR is a percentage.
type VariantMetric struct {
	VariantID   string  `json:"variantId"`
	Title       string  `json:"title"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

type TestMetrics struct {
	Metrics   []VariantMetric `json:"metrics"`
	Winner    *VariantMetric  `json:"winner"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	Status    TestStatus      `json:"status"`
}
