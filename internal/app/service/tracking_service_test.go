package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
)

func newTestTracking(log repository.EventLog, store repository.RealtimeStore) TrackingService {
	enricher := NewEventEnricher(nil, &mockSessionCache{}, "server-1")
	aggregator := NewRealtimeAggregator(nil, store, 24*time.Hour, 100)
	return NewTrackingService(nil, enricher, log, aggregator)
}

func TestTrackingService_InvalidEventNeverReachesDownstream(t *testing.T) {
	log := &mockEventLog{
		appendFn: func(ctx context.Context, event *model.EnrichedEvent) error {
			t.Fatal("invalid event must not reach the event log")
			return nil
		},
	}
	store := repository.NewMemoryRealtimeStore(nil)
	svc := newTestTracking(log, store)

	event := validEvent()
	event.EventType = ""

	err := svc.Track(context.Background(), event)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}

	counts, _ := store.Counters(context.Background(), event.PartnerID)
	if len(counts) != 0 {
		t.Fatalf("invalid event must not reach the aggregator: %v", counts)
	}
}

func TestTrackingService_AppendsAndAggregates(t *testing.T) {
	var appended *model.EnrichedEvent
	log := &mockEventLog{
		appendFn: func(ctx context.Context, event *model.EnrichedEvent) error {
			appended = event
			return nil
		},
	}
	store := repository.NewMemoryRealtimeStore(nil)
	svc := newTestTracking(log, store)

	if err := svc.Track(context.Background(), validEvent()); err != nil {
		t.Fatalf("Track error: %v", err)
	}

	if appended == nil {
		t.Fatal("expected event appended to the log")
	}
	if appended.ID == "" || appended.ProcessedAt.IsZero() {
		t.Fatalf("expected enriched event in the log, got %+v", appended)
	}

	counts, _ := store.Counters(context.Background(), "partner-1")
	if counts[string(model.EventTypeView)] != 1 {
		t.Fatalf("expected aggregator update, got %v", counts)
	}
}

func TestTrackingService_AppendFailureSurfacesAsUpstream(t *testing.T) {
	log := &mockEventLog{
		appendFn: func(ctx context.Context, event *model.EnrichedEvent) error {
			return errors.New("nats unreachable")
		},
	}
	store := repository.NewMemoryRealtimeStore(nil)
	svc := newTestTracking(log, store)

	err := svc.Track(context.Background(), validEvent())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	// The realtime path must not run when the append fails first.
	counts, _ := store.Counters(context.Background(), "partner-1")
	if len(counts) != 0 {
		t.Fatalf("expected no aggregator update after append failure, got %v", counts)
	}
}

func TestTrackingService_RealtimeFailureIsTolerated(t *testing.T) {
	log := &mockEventLog{}
	svc := newTestTracking(log, &failingRealtimeStore{err: errors.New("redis down")})

	if err := svc.Track(context.Background(), validEvent()); err != nil {
		t.Fatalf("realtime failure must not fail the event, got %v", err)
	}
}
