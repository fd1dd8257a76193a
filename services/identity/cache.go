package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedProvider caches successful attribute lookups in redis. Failures are
// never cached; they surface to the caller unchanged.
type CachedProvider struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl}
}

func (p *CachedProvider) Lookup(ctx context.Context, userID string) (*Attributes, error) {
	key := "idp:attrs:" + userID

	if raw, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var attrs Attributes
		if err := json.Unmarshal(raw, &attrs); err == nil {
			return &attrs, nil
		}
	}

	attrs, err := p.next.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(attrs); err == nil {
		if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
			zap.L().Warn("failed to cache identity attributes", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return attrs, nil
}
