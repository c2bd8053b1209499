// Package cache provides an optional Redis-backed cache for the user
// directory listing. When no Redis client is configured the cache is a
// no-op and every read goes to the store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/accounthub/apiserver/types"
	"github.com/redis/go-redis/v9"
)

const userListKey = "accounthub:users"

// UserListCache caches the serialized user directory with a TTL. A nil
// *UserListCache or a nil client disables caching; all methods degrade to
// cache misses.
type UserListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserListCache constructs a cache over the given client. client may be nil.
func NewUserListCache(client *redis.Client, ttl time.Duration) *UserListCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &UserListCache{client: client, ttl: ttl}
}

// Get returns the cached directory and whether the lookup hit. Decode or
// transport failures count as misses so the caller falls back to the store.
func (c *UserListCache) Get(ctx context.Context) ([]types.User, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, userListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var users []types.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false
	}
	return users, true
}

// Set stores the directory listing. Errors are ignored; a failed write only
// costs the next reader a store round-trip.
func (c *UserListCache) Set(ctx context.Context, users []types.User) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, userListKey, raw, c.ttl).Err()
}

// Invalidate drops the cached listing. Called after sign-up so a new
// account shows up on the next read.
func (c *UserListCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, userListKey).Err()
}
