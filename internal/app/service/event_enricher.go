package service

import (
	"context"
	"os"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventEnricher stamps validated events with server-side processing
// context before they fan out to the log and the realtime aggregator.
type EventEnricher struct {
	logger   *zap.Logger
	sessions repository.SessionCache
	serverID string
	now      func() time.Time
}

// NewEventEnricher creates an enricher. An empty serverID falls back to
// the host name.
func NewEventEnricher(logger *zap.Logger, sessions repository.SessionCache, serverID string) *EventEnricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if serverID == "" {
		if host, err := os.Hostname(); err == nil {
			serverID = host
		} else {
			serverID = "unknown"
		}
	}
	return &EventEnricher{
		logger:   logger,
		sessions: sessions,
		serverID: serverID,
		now:      time.Now,
	}
}

// Enrich adds processedAt, the processing server identity, an event id,
// and best-effort session context. The incoming event's own fields are
// never mutated. Session lookup failures degrade to enrichment without
// session data; this is the only side-effecting read before commit.
func (e *EventEnricher) Enrich(ctx context.Context, event model.Event) model.EnrichedEvent {
	enriched := model.EnrichedEvent{
		Event:            event,
		ID:               uuid.New().String(),
		ProcessedAt:      e.now().UTC(),
		ProcessingServer: e.serverID,
	}

	if sessionID := event.Metadata.SessionID; sessionID != "" && e.sessions != nil {
		session, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			e.logger.Warn("session lookup failed, continuing without session data",
				zap.String("partner_id", event.PartnerID),
				zap.String("session_id", sessionID),
				zap.Error(err))
		} else {
			enriched.Session = session
		}
	}

	return enriched
}
