package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionCache resolves cached session context for event enrichment. The
// session layer that writes these entries is an external collaborator; a
// missing session is (nil, nil), not an error.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (model.SessionContext, error)
}

type redisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache returns a Redis-backed SessionCache.
func NewRedisSessionCache(client *redis.Client) SessionCache {
	return &redisSessionCache{client: client}
}

func (c *redisSessionCache) Get(ctx context.Context, sessionID string) (model.SessionContext, error) {
	raw, err := c.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session model.SessionContext
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	return session, nil
}
