package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	"go.uber.org/zap"
)

// RealtimeAggregator maintains the short-TTL per-partner aggregates that
// feed low-latency dashboards. It never touches the durable log, and its
// values may diverge from log-derived reports until the TTL expires.
type RealtimeAggregator struct {
	logger    *zap.Logger
	store     repository.RealtimeStore
	ttl       time.Duration
	maxRecent int64
}

// NewRealtimeAggregator creates an aggregator over the given store.
func NewRealtimeAggregator(logger *zap.Logger, store repository.RealtimeStore, ttl time.Duration, maxRecent int64) *RealtimeAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeAggregator{
		logger:    logger,
		store:     store,
		ttl:       ttl,
		maxRecent: maxRecent,
	}
}

// Update folds one enriched event into the partner's realtime structures.
// Each structure's expiry is refreshed on every write. The three writes
// are individually atomic per key but not atomic as a group.
func (a *RealtimeAggregator) Update(ctx context.Context, event *model.EnrichedEvent) error {
	partnerID := event.PartnerID

	if err := a.store.IncrCounter(ctx, partnerID, string(event.EventType), a.ttl); err != nil {
		return fmt.Errorf("increment counter: partner=%s: %w", partnerID, err)
	}

	if userID := event.Metadata.UserID; userID != "" {
		if err := a.store.AddUser(ctx, partnerID, userID, a.ttl); err != nil {
			return fmt.Errorf("add unique user: partner=%s: %w", partnerID, err)
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal recent event: partner=%s: %w", partnerID, err)
	}
	if err := a.store.AddRecent(ctx, partnerID, event.Timestamp, payload, a.maxRecent, a.ttl); err != nil {
		return fmt.Errorf("append recent event: partner=%s: %w", partnerID, err)
	}

	return nil
}

// Snapshot reads the partner's current realtime aggregates. Absent
// structures yield zero-valued output.
func (a *RealtimeAggregator) Snapshot(ctx context.Context, partnerID string) (*model.RealtimeSnapshot, error) {
	raw, err := a.store.Counters(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("read counters: partner=%s: %w", partnerID, err)
	}

	counts := make(map[model.EventType]int64, len(raw))
	for field, n := range raw {
		counts[model.EventType(field)] = n
	}

	uniqueUsers, err := a.store.UniqueUserCount(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("read unique users: partner=%s: %w", partnerID, err)
	}

	recent, err := a.store.RecentCount(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("read recent window: partner=%s: %w", partnerID, err)
	}

	views := counts[model.EventTypeView]
	conversions := counts[model.EventTypeConversion]
	rate := 0.0
	if views > 0 {
		rate = float64(conversions) / float64(views) * 100
	}

	return &model.RealtimeSnapshot{
		PartnerID:       partnerID,
		Counts:          counts,
		UniqueUserCount: uniqueUsers,
		RecentCount:     recent,
		ConversionRate:  rate,
	}, nil
}
