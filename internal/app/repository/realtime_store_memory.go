package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRecentEntry struct {
	at      time.Time
	payload []byte
}

type memoryPartnerState struct {
	counters       map[string]int64
	countersExpiry time.Time
	users          map[string]struct{}
	usersExpiry    time.Time
	recent         []memoryRecentEntry
	recentExpiry   time.Time
}

// MemoryRealtimeStore is an in-process RealtimeStore with the same TTL
// semantics as the Redis implementation. It backs tests and single-node
// deployments without a cache.
type MemoryRealtimeStore struct {
	mu       sync.Mutex
	partners map[string]*memoryPartnerState
	now      func() time.Time
}

// NewMemoryRealtimeStore returns an empty in-memory store. A nil clock
// defaults to time.Now.
func NewMemoryRealtimeStore(clock func() time.Time) *MemoryRealtimeStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRealtimeStore{
		partners: make(map[string]*memoryPartnerState),
		now:      clock,
	}
}

func (s *MemoryRealtimeStore) state(partnerID string) *memoryPartnerState {
	st, ok := s.partners[partnerID]
	if !ok {
		st = &memoryPartnerState{
			counters: make(map[string]int64),
			users:    make(map[string]struct{}),
		}
		s.partners[partnerID] = st
	}
	return st
}

func (s *MemoryRealtimeStore) IncrCounter(_ context.Context, partnerID, field string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(partnerID)
	if !st.countersExpiry.IsZero() && s.now().After(st.countersExpiry) {
		st.counters = make(map[string]int64)
	}
	st.counters[field]++
	st.countersExpiry = s.now().Add(ttl)
	return nil
}

func (s *MemoryRealtimeStore) AddUser(_ context.Context, partnerID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(partnerID)
	if !st.usersExpiry.IsZero() && s.now().After(st.usersExpiry) {
		st.users = make(map[string]struct{})
	}
	st.users[userID] = struct{}{}
	st.usersExpiry = s.now().Add(ttl)
	return nil
}

func (s *MemoryRealtimeStore) AddRecent(_ context.Context, partnerID string, at time.Time, payload []byte, maxEntries int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(partnerID)
	if !st.recentExpiry.IsZero() && s.now().After(st.recentExpiry) {
		st.recent = nil
	}
	st.recent = append(st.recent, memoryRecentEntry{at: at, payload: payload})
	sort.SliceStable(st.recent, func(i, j int) bool {
		return st.recent[i].at.Before(st.recent[j].at)
	})
	if maxEntries > 0 && int64(len(st.recent)) > maxEntries {
		st.recent = st.recent[int64(len(st.recent))-maxEntries:]
	}
	st.recentExpiry = s.now().Add(ttl)
	return nil
}

func (s *MemoryRealtimeStore) Counters(_ context.Context, partnerID string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.partners[partnerID]
	if !ok || (!st.countersExpiry.IsZero() && s.now().After(st.countersExpiry)) {
		return map[string]int64{}, nil
	}

	counts := make(map[string]int64, len(st.counters))
	for field, n := range st.counters {
		counts[field] = n
	}
	return counts, nil
}

func (s *MemoryRealtimeStore) UniqueUserCount(_ context.Context, partnerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.partners[partnerID]
	if !ok || (!st.usersExpiry.IsZero() && s.now().After(st.usersExpiry)) {
		return 0, nil
	}
	return int64(len(st.users)), nil
}

func (s *MemoryRealtimeStore) RecentCount(_ context.Context, partnerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.partners[partnerID]
	if !ok || (!st.recentExpiry.IsZero() && s.now().After(st.recentExpiry)) {
		return 0, nil
	}
	return int64(len(st.recent)), nil
}
