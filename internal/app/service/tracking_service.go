package service

import (
	"context"
	"fmt"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	infraProm "github.com/TML-4PM/Partner-Portal/internal/infra/prometheus"
	"go.uber.org/zap"
)

// TrackingService is the ingestion path: validate, enrich, then fan out to
// the durable log and the realtime aggregator.
type TrackingService interface {
	Track(ctx context.Context, event model.Event) error
}

type trackingService struct {
	logger     *zap.Logger
	enricher   *EventEnricher
	log        repository.EventLog
	aggregator *RealtimeAggregator
}

// NewTrackingService wires the ingestion path.
func NewTrackingService(logger *zap.Logger, enricher *EventEnricher, log repository.EventLog, aggregator *RealtimeAggregator) TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &trackingService{
		logger:     logger,
		enricher:   enricher,
		log:        log,
		aggregator: aggregator,
	}
}

// Track processes one event. Validation failure is fatal for the event and
// reaches neither the log nor the aggregator. An append failure surfaces
// as that event's processing failure; the caller decides whether to
// retry. A realtime update failure after a successful append is logged
// and tolerated: the log is authoritative, the snapshot goes stale at
// worst until its TTL expires.
func (s *trackingService) Track(ctx context.Context, event model.Event) error {
	if err := ValidateEvent(&event); err != nil {
		infraProm.EventsRejected.Inc()
		return err
	}

	enriched := s.enricher.Enrich(ctx, event)

	if err := s.log.Append(ctx, &enriched); err != nil {
		return fmt.Errorf("append event: partner=%s: %w: %w", event.PartnerID, ErrUpstreamUnavailable, err)
	}

	if err := s.aggregator.Update(ctx, &enriched); err != nil {
		infraProm.RealtimeUpdateFailures.Inc()
		s.logger.Warn("realtime update failed after log append",
			zap.String("partner_id", event.PartnerID),
			zap.String("event_id", enriched.ID),
			zap.Error(err))
	}

	infraProm.EventsIngested.Inc()
	return nil
}
