package model

import "time"

// InsightType is the closed set of insight kinds the analyzer emits.
type InsightType string

const (
	InsightTypeTrend          InsightType = "TREND"
	InsightTypeAlert          InsightType = "ALERT"
	InsightTypeRecommendation InsightType = "RECOMMENDATION"
)

// Valid reports whether t is one of the known insight types.
func (t InsightType) Valid() bool {
	switch t {
	case InsightTypeTrend, InsightTypeAlert, InsightTypeRecommendation:
		return true
	}
	return false
}

// InsightCategory classifies what aspect of the partner's traffic an
// insight concerns.
type InsightCategory string

const (
	InsightCategoryPerformance InsightCategory = "PERFORMANCE"
	InsightCategoryEngagement  InsightCategory = "ENGAGEMENT"
	InsightCategoryConversion  InsightCategory = "CONVERSION"
	InsightCategorySecurity    InsightCategory = "SECURITY"
)

// Valid reports whether c is one of the known categories.
func (c InsightCategory) Valid() bool {
	switch c {
	case InsightCategoryPerformance, InsightCategoryEngagement,
		InsightCategoryConversion, InsightCategorySecurity:
		return true
	}
	return false
}

// InsightSeverity orders insights by urgency.
type InsightSeverity string

const (
	InsightSeverityLow    InsightSeverity = "LOW"
	InsightSeverityMedium InsightSeverity = "MEDIUM"
	InsightSeverityHigh   InsightSeverity = "HIGH"
)

// Valid reports whether s is one of the known severities.
func (s InsightSeverity) Valid() bool {
	switch s {
	case InsightSeverityLow, InsightSeverityMedium, InsightSeverityHigh:
		return true
	}
	return false
}

// InsightStatus is the lifecycle state of a persisted insight. ACTIVE is
// initial; RESOLVED and DISMISSED are terminal. Insights are never deleted.
type InsightStatus string

const (
	InsightStatusActive    InsightStatus = "ACTIVE"
	InsightStatusResolved  InsightStatus = "RESOLVED"
	InsightStatusDismissed InsightStatus = "DISMISSED"
)

// Valid reports whether s is one of the known statuses.
func (s InsightStatus) Valid() bool {
	switch s {
	case InsightStatusActive, InsightStatusResolved, InsightStatusDismissed:
		return true
	}
	return false
}

// InsightContent is the human-facing payload of an insight.
type InsightContent struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// InsightMetadata records provenance for an insight.
type InsightMetadata struct {
	Source     string     `json:"source"`
	Confidence float64    `json:"confidence"`
	TimeRange  *TimeRange `json:"timeRange,omitempty"`
}

// Insight is a rule-triggered observation derived from a partner report,
// stored in Postgres. Only the status mutates after creation.
type Insight struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	PartnerID string          `json:"partnerId" gorm:"size:32;index;not null"`
	Type      InsightType     `json:"type" gorm:"size:16;not null"`
	Category  InsightCategory `json:"category" gorm:"size:16;not null"`
	Severity  InsightSeverity `json:"severity" gorm:"size:8;not null"`
	Content   InsightContent  `json:"content" gorm:"serializer:json;type:jsonb"`
	Metadata  InsightMetadata `json:"metadata" gorm:"serializer:json;type:jsonb"`
	Status    InsightStatus   `json:"status" gorm:"size:16;not null;default:ACTIVE;index"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// InsightFilter narrows insight queries; nil fields match everything.
type InsightFilter struct {
	Type          *InsightType
	Category      *InsightCategory
	Severity      *InsightSeverity
	Status        *InsightStatus
	StartDate     *time.Time
	EndDate       *time.Time
	MinConfidence *float64
}

// InsightMetricsSummary counts a partner's stored insights along each
// classification axis, for the dashboard summary endpoint.
type InsightMetricsSummary struct {
	Total      int64                     `json:"total"`
	ByStatus   map[InsightStatus]int64   `json:"byStatus"`
	BySeverity map[InsightSeverity]int64 `json:"bySeverity"`
	ByCategory map[InsightCategory]int64 `json:"byCategory"`
}
