package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RealtimeStore is the keyed short-TTL state behind the realtime
// aggregator: an event-type counter hash, a unique-user set, and a capped
// recent-event window per partner. Every write refreshes the structure's
// expiry; reads on absent keys return zero values, never an error.
type RealtimeStore interface {
	IncrCounter(ctx context.Context, partnerID, field string, ttl time.Duration) error
	AddUser(ctx context.Context, partnerID, userID string, ttl time.Duration) error
	AddRecent(ctx context.Context, partnerID string, at time.Time, payload []byte, maxEntries int64, ttl time.Duration) error

	Counters(ctx context.Context, partnerID string) (map[string]int64, error)
	UniqueUserCount(ctx context.Context, partnerID string) (int64, error)
	RecentCount(ctx context.Context, partnerID string) (int64, error)
}

const (
	realtimeCountersKey = "realtime:%s:events"
	realtimeUsersKey    = "realtime:%s:users"
	realtimeRecentKey   = "realtime:%s:recent"
)

type redisRealtimeStore struct {
	client *redis.Client
}

// NewRedisRealtimeStore returns a Redis-backed RealtimeStore.
func NewRedisRealtimeStore(client *redis.Client) RealtimeStore {
	return &redisRealtimeStore{client: client}
}

func (s *redisRealtimeStore) IncrCounter(ctx context.Context, partnerID, field string, ttl time.Duration) error {
	key := fmt.Sprintf(realtimeCountersKey, partnerID)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisRealtimeStore) AddUser(ctx context.Context, partnerID, userID string, ttl time.Duration) error {
	key := fmt.Sprintf(realtimeUsersKey, partnerID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisRealtimeStore) AddRecent(ctx context.Context, partnerID string, at time.Time, payload []byte, maxEntries int64, ttl time.Duration) error {
	key := fmt.Sprintf(realtimeRecentKey, partnerID)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.Unix()), Member: payload})
	if maxEntries > 0 {
		// Keep only the newest maxEntries members.
		pipe.ZRemRangeByRank(ctx, key, 0, -(maxEntries + 1))
	}
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisRealtimeStore) Counters(ctx context.Context, partnerID string) (map[string]int64, error) {
	key := fmt.Sprintf(realtimeCountersKey, partnerID)
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s.%s: %w", partnerID, field, err)
		}
		counts[field] = n
	}
	return counts, nil
}

func (s *redisRealtimeStore) UniqueUserCount(ctx context.Context, partnerID string) (int64, error) {
	return s.client.SCard(ctx, fmt.Sprintf(realtimeUsersKey, partnerID)).Result()
}

func (s *redisRealtimeStore) RecentCount(ctx context.Context, partnerID string) (int64, error) {
	return s.client.ZCard(ctx, fmt.Sprintf(realtimeRecentKey, partnerID)).Result()
}
