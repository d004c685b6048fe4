package model

import "time"

// TimeRange is a half-open [Start, End) reporting window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportMetrics are the summary numbers computed over a time window.
// ConversionRate is a percentage in [0, 100].
type ReportMetrics struct {
	TotalViews        int     `json:"totalViews"`
	TotalInteractions int     `json:"totalInteractions"`
	TotalConversions  int     `json:"totalConversions"`
	ConversionRate    float64 `json:"conversionRate"`
	AverageDuration   float64 `json:"averageDuration"`
}

// ReportSegments are event counts grouped by metadata fields. Events
// missing the field are omitted from the respective table.
type ReportSegments struct {
	ByPage   map[string]int `json:"byPage"`
	ByAction map[string]int `json:"byAction"`
}

// Report is a derived summary of a partner's events over a time window.
// Reports are recomputed on demand and never stored.
type Report struct {
	PartnerID string         `json:"partnerId"`
	TimeRange TimeRange      `json:"timeRange"`
	Metrics   ReportMetrics  `json:"metrics"`
	Segments  ReportSegments `json:"segments"`
}

// RealtimeSnapshot is the low-latency per-partner aggregate view backed by
// short-TTL state. Absent state reads as all zeros.
type RealtimeSnapshot struct {
	PartnerID       string              `json:"partnerId"`
	Counts          map[EventType]int64 `json:"counts"`
	UniqueUserCount int64               `json:"uniqueUserCount"`
	RecentCount     int64               `json:"recentCount"`
	ConversionRate  float64             `json:"conversionRate"`
}
