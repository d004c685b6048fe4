package service

import (
	"context"
	"fmt"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
)

// ReportGenerator computes windowed analytical reports from the durable
// event log. Generation is a pure reduction: the same event sequence
// always yields the same report.
type ReportGenerator struct {
	log repository.EventLog
}

// NewReportGenerator creates a generator reading from the given log.
func NewReportGenerator(log repository.EventLog) *ReportGenerator {
	return &ReportGenerator{log: log}
}

// Generate reads the partner's events for the window and reduces them to
// summary metrics and segments. It takes no locks and is bounded only by
// the caller's context.
func (g *ReportGenerator) Generate(ctx context.Context, partnerID string, timeRange model.TimeRange) (*model.Report, error) {
	if timeRange.Start.IsZero() || timeRange.End.IsZero() {
		return nil, fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if !timeRange.Start.Before(timeRange.End) {
		return nil, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRange,
			timeRange.Start.Format("2006-01-02"), timeRange.End.Format("2006-01-02"))
	}

	events, err := g.log.RangeByTime(ctx, partnerID, timeRange.Start, timeRange.End)
	if err != nil {
		return nil, fmt.Errorf("read event range: partner=%s: %w: %w", partnerID, ErrUpstreamUnavailable, err)
	}

	return &model.Report{
		PartnerID: partnerID,
		TimeRange: timeRange,
		Metrics:   reduceMetrics(events),
		Segments:  reduceSegments(events),
	}, nil
}

func reduceMetrics(events []model.EnrichedEvent) model.ReportMetrics {
	var metrics model.ReportMetrics

	durationSum := 0.0
	durationCount := 0

	for _, event := range events {
		switch event.EventType {
		case model.EventTypeView:
			metrics.TotalViews++
		case model.EventTypeInteraction:
			metrics.TotalInteractions++
		case model.EventTypeConversion:
			metrics.TotalConversions++
		}

		// Duration counts across all event types, not just views.
		if event.Metadata.Duration > 0 {
			durationSum += event.Metadata.Duration
			durationCount++
		}
	}

	if metrics.TotalViews > 0 {
		metrics.ConversionRate = float64(metrics.TotalConversions) / float64(metrics.TotalViews) * 100
	}
	if durationCount > 0 {
		metrics.AverageDuration = durationSum / float64(durationCount)
	}

	return metrics
}

func reduceSegments(events []model.EnrichedEvent) model.ReportSegments {
	segments := model.ReportSegments{
		ByPage:   make(map[string]int),
		ByAction: make(map[string]int),
	}

	for _, event := range events {
		if page := event.Metadata.Page; page != "" {
			segments.ByPage[page]++
		}
		if action := event.Metadata.Action; action != "" {
			segments.ByAction[action]++
		}
	}

	return segments
}
