package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts events accepted through the full ingestion path.
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_ingested_total",
		Help: "Events validated, enriched and appended to the event log.",
	})

	// EventsRejected counts events dropped by validation.
	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_rejected_total",
		Help: "Events rejected as structurally invalid.",
	})

	// RealtimeUpdateFailures counts tolerated realtime-store write failures.
	RealtimeUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_realtime_update_failures_total",
		Help: "Realtime aggregate updates that failed after a successful log append.",
	})

	// InsightsGenerated counts insights persisted by the analyzer.
	InsightsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_insights_generated_total",
		Help: "Insights derived and stored.",
	})

	// InsightJobsRejected counts generation requests dropped on a full queue.
	InsightJobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_insight_jobs_rejected_total",
		Help: "Insight generation submissions rejected because the queue was full.",
	})
)
