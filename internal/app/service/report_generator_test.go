package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
)

type mockEventLog struct {
	appendFn func(ctx context.Context, event *model.EnrichedEvent) error
	rangeFn  func(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error)
}

func (m *mockEventLog) Append(ctx context.Context, event *model.EnrichedEvent) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, event)
	}
	return nil
}

func (m *mockEventLog) RangeByTime(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, partnerID, start, end)
	}
	return nil, nil
}

func enrichedAt(eventType model.EventType, at time.Time, metadata model.EventMetadata) model.EnrichedEvent {
	return model.EnrichedEvent{
		Event: model.Event{
			PartnerID: "partner-1",
			Timestamp: at,
			EventType: eventType,
			Metadata:  metadata,
		},
	}
}

func testRange() model.TimeRange {
	return model.TimeRange{
		Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestReportGenerator_InvalidRange(t *testing.T) {
	gen := NewReportGenerator(&mockEventLog{})

	_, err := gen.Generate(context.Background(), "partner-1", model.TimeRange{
		Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	_, err = gen.Generate(context.Background(), "partner-1", model.TimeRange{})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for zero range, got %v", err)
	}
}

func TestReportGenerator_ZeroViewsConversionRate(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	log := &mockEventLog{
		rangeFn: func(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
			return []model.EnrichedEvent{
				enrichedAt(model.EventTypeConversion, at, model.EventMetadata{}),
				enrichedAt(model.EventTypeInteraction, at, model.EventMetadata{}),
			}, nil
		},
	}

	report, err := NewReportGenerator(log).Generate(context.Background(), "partner-1", testRange())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if report.Metrics.ConversionRate != 0 {
		t.Fatalf("expected conversionRate 0 with no views, got %f", report.Metrics.ConversionRate)
	}
}

func TestReportGenerator_Metrics(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	log := &mockEventLog{
		rangeFn: func(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
			return []model.EnrichedEvent{
				enrichedAt(model.EventTypeView, at, model.EventMetadata{Page: "/home", Duration: 10}),
				enrichedAt(model.EventTypeView, at, model.EventMetadata{Page: "/home"}),
				enrichedAt(model.EventTypeView, at, model.EventMetadata{Page: "/pricing"}),
				enrichedAt(model.EventTypeView, at, model.EventMetadata{}),
				enrichedAt(model.EventTypeInteraction, at, model.EventMetadata{Action: "click", Duration: 20}),
				enrichedAt(model.EventTypeConversion, at, model.EventMetadata{Duration: 30}),
			}, nil
		},
	}

	report, err := NewReportGenerator(log).Generate(context.Background(), "partner-1", testRange())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	m := report.Metrics
	if m.TotalViews != 4 || m.TotalInteractions != 1 || m.TotalConversions != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.ConversionRate != 25 {
		t.Fatalf("expected conversionRate 25, got %f", m.ConversionRate)
	}
	// Duration averages across all event types carrying one.
	if m.AverageDuration != 20 {
		t.Fatalf("expected averageDuration 20, got %f", m.AverageDuration)
	}

	if report.Segments.ByPage["/home"] != 2 || report.Segments.ByPage["/pricing"] != 1 {
		t.Fatalf("unexpected byPage segments: %v", report.Segments.ByPage)
	}
	if len(report.Segments.ByPage) != 2 {
		t.Fatalf("events without a page must be omitted: %v", report.Segments.ByPage)
	}
	if report.Segments.ByAction["click"] != 1 {
		t.Fatalf("unexpected byAction segments: %v", report.Segments.ByAction)
	}
}

func TestReportGenerator_Deterministic(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	events := []model.EnrichedEvent{
		enrichedAt(model.EventTypeView, at, model.EventMetadata{Page: "/home", Duration: 10}),
		enrichedAt(model.EventTypeConversion, at.Add(time.Minute), model.EventMetadata{}),
	}
	log := &mockEventLog{
		rangeFn: func(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
			return events, nil
		},
	}
	gen := NewReportGenerator(log)

	first, err := gen.Generate(context.Background(), "partner-1", testRange())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	second, err := gen.Generate(context.Background(), "partner-1", testRange())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical reports, got\n%+v\n%+v", first, second)
	}
}

func TestReportGenerator_UpstreamFailure(t *testing.T) {
	log := &mockEventLog{
		rangeFn: func(ctx context.Context, partnerID string, start, end time.Time) ([]model.EnrichedEvent, error) {
			return nil, errors.New("stream offline")
		},
	}

	_, err := NewReportGenerator(log).Generate(context.Background(), "partner-1", testRange())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
