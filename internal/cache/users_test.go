package cache

import (
	"context"
	"testing"

	"github.com/accounthub/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestNilCacheDegradesToMisses(t *testing.T) {
	ctx := context.Background()

	var nilCache *UserListCache
	users, hit := nilCache.Get(ctx)
	assert.False(t, hit)
	assert.Nil(t, users)
	nilCache.Set(ctx, []types.User{})
	nilCache.Invalidate(ctx)

	noClient := NewUserListCache(nil, 0)
	users, hit = noClient.Get(ctx)
	assert.False(t, hit)
	assert.Nil(t, users)
	noClient.Set(ctx, []types.User{})
	noClient.Invalidate(ctx)
}
