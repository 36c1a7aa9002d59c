package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// abTestEvents counts impression/click recordings by outcome
	abTestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkbio_abtest_events_total",
		Help: "A/B test impressions and clicks recorded, by type and result",
	}, []string{"type", "result"})

	// analyticsIngest counts click events accepted or rejected at ingestion
	analyticsIngest = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkbio_analytics_ingest_total",
		Help: "Analytics events ingested, by result",
	}, []string{"result"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
