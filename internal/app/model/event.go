package model

import "time"

// EventType is the closed set of behavioral event kinds a partner can track.
type EventType string

const (
	EventTypeView        EventType = "VIEW"
	EventTypeInteraction EventType = "INTERACTION"
	EventTypeConversion  EventType = "CONVERSION"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeView, EventTypeInteraction, EventTypeConversion:
		return true
	}
	return false
}

// EventMetadata holds the optional attributes attached to a tracked event.
type EventMetadata struct {
	Page      string  `json:"page,omitempty"`
	Action    string  `json:"action,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Value     float64 `json:"value,omitempty"`
	UserID    string  `json:"userId,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
}

// Event is a single partner-scoped behavioral event as received at the
// ingestion boundary.
type Event struct {
	PartnerID string        `json:"partnerId"`
	Timestamp time.Time     `json:"timestamp"`
	EventType EventType     `json:"eventType"`
	Metadata  EventMetadata `json:"metadata"`
}

// SessionContext is the opaque session blob cached by the session layer.
type SessionContext map[string]any

// EnrichedEvent is an Event after server-side enrichment. It is immutable
// once appended to the event log.
type EnrichedEvent struct {
	Event

	ID               string         `json:"id"`
	ProcessedAt      time.Time      `json:"processedAt"`
	ProcessingServer string         `json:"processingServer"`
	Session          SessionContext `json:"session,omitempty"`
}

const (
	EventStreamName     = "EVENTS"
	EventStreamSubjects = "events.>"
	EventSubjectPrefix  = "events."
	EventStreamMaxBytes = 1024 * 1024 * 512 // 512MB
)

// EventSubject returns the per-partner stream subject.
func EventSubject(partnerID string) string {
	return EventSubjectPrefix + partnerID
}
