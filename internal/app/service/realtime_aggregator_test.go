package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
)

type failingRealtimeStore struct {
	err error
}

func (f *failingRealtimeStore) IncrCounter(context.Context, string, string, time.Duration) error {
	return f.err
}
func (f *failingRealtimeStore) AddUser(context.Context, string, string, time.Duration) error {
	return f.err
}
func (f *failingRealtimeStore) AddRecent(context.Context, string, time.Time, []byte, int64, time.Duration) error {
	return f.err
}
func (f *failingRealtimeStore) Counters(context.Context, string) (map[string]int64, error) {
	return nil, f.err
}
func (f *failingRealtimeStore) UniqueUserCount(context.Context, string) (int64, error) {
	return 0, f.err
}
func (f *failingRealtimeStore) RecentCount(context.Context, string) (int64, error) {
	return 0, f.err
}

func enrichedEvent(eventType model.EventType, userID string) *model.EnrichedEvent {
	return &model.EnrichedEvent{
		Event: model.Event{
			PartnerID: "partner-1",
			Timestamp: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			EventType: eventType,
			Metadata:  model.EventMetadata{UserID: userID},
		},
		ID: "evt-1",
	}
}

func TestRealtimeAggregator_CountsSumToUpdates(t *testing.T) {
	store := repository.NewMemoryRealtimeStore(nil)
	agg := NewRealtimeAggregator(nil, store, 24*time.Hour, 100)
	ctx := context.Background()

	const n = 10
	for i := 0; i < n; i++ {
		if err := agg.Update(ctx, enrichedEvent(model.EventTypeView, "")); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	}

	snapshot, err := agg.Snapshot(ctx, "partner-1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}

	var total int64
	for _, count := range snapshot.Counts {
		total += count
	}
	if total != n {
		t.Fatalf("expected counts to sum to %d, got %d", n, total)
	}
	if snapshot.UniqueUserCount != 0 {
		t.Fatalf("expected no unique users without user ids, got %d", snapshot.UniqueUserCount)
	}
	if snapshot.RecentCount != n {
		t.Fatalf("expected %d recent events, got %d", n, snapshot.RecentCount)
	}
}

func TestRealtimeAggregator_UniqueUsersAndConversionRate(t *testing.T) {
	store := repository.NewMemoryRealtimeStore(nil)
	agg := NewRealtimeAggregator(nil, store, 24*time.Hour, 100)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := agg.Update(ctx, enrichedEvent(model.EventTypeView, "alice")); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	}
	if err := agg.Update(ctx, enrichedEvent(model.EventTypeConversion, "bob")); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	snapshot, err := agg.Snapshot(ctx, "partner-1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snapshot.UniqueUserCount != 2 {
		t.Fatalf("expected 2 unique users, got %d", snapshot.UniqueUserCount)
	}
	if snapshot.ConversionRate != 25 {
		t.Fatalf("expected conversion rate 25, got %f", snapshot.ConversionRate)
	}
}

func TestRealtimeAggregator_ExpiryYieldsZeroState(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	store := repository.NewMemoryRealtimeStore(func() time.Time { return now })
	agg := NewRealtimeAggregator(nil, store, 24*time.Hour, 100)
	ctx := context.Background()

	if err := agg.Update(ctx, enrichedEvent(model.EventTypeView, "alice")); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	// Simulate 25 hours passing.
	now = now.Add(25 * time.Hour)

	snapshot, err := agg.Snapshot(ctx, "partner-1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(snapshot.Counts) != 0 || snapshot.UniqueUserCount != 0 || snapshot.RecentCount != 0 {
		t.Fatalf("expected zero state after expiry, got %+v", snapshot)
	}
	if snapshot.ConversionRate != 0 {
		t.Fatalf("expected zero conversion rate after expiry, got %f", snapshot.ConversionRate)
	}
}

func TestRealtimeAggregator_AbsentPartnerIsZeroNotError(t *testing.T) {
	store := repository.NewMemoryRealtimeStore(nil)
	agg := NewRealtimeAggregator(nil, store, 24*time.Hour, 100)

	snapshot, err := agg.Snapshot(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("expected zero state, got error %v", err)
	}
	if len(snapshot.Counts) != 0 || snapshot.UniqueUserCount != 0 || snapshot.RecentCount != 0 {
		t.Fatalf("expected zero state, got %+v", snapshot)
	}
}

func TestRealtimeAggregator_RecentWindowIsCapped(t *testing.T) {
	store := repository.NewMemoryRealtimeStore(nil)
	agg := NewRealtimeAggregator(nil, store, 24*time.Hour, 5)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := agg.Update(ctx, enrichedEvent(model.EventTypeView, "")); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	}

	snapshot, err := agg.Snapshot(ctx, "partner-1")
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if snapshot.RecentCount != 5 {
		t.Fatalf("expected recent window capped at 5, got %d", snapshot.RecentCount)
	}
}

func TestRealtimeAggregator_StoreFailureSurfaces(t *testing.T) {
	agg := NewRealtimeAggregator(nil, &failingRealtimeStore{err: errors.New("redis down")}, 24*time.Hour, 100)

	if err := agg.Update(context.Background(), enrichedEvent(model.EventTypeView, "")); err == nil {
		t.Fatal("expected update error")
	}
	if _, err := agg.Snapshot(context.Background(), "partner-1"); err == nil {
		t.Fatal("expected snapshot error")
	}
}
