package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// offlineCache returns a cache whose client is never dialed by argument validation paths.
func offlineCache(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client)
}

func TestCache_ArgumentValidation(t *testing.T) {
	c := offlineCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", "v", time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.Set(ctx, "k", make(chan int), time.Minute), ErrCacheSerialization)

	var dst string
	assert.ErrorIs(t, c.Get(ctx, "", &dst), ErrCacheKeyEmpty)
	assert.NoError(t, c.Delete(ctx))

	_, err := c.TTL(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)
}

func TestProposalKey(t *testing.T) {
	assert.Equal(t, "roulette:proposal:42", ProposalKey(roulette.RouletteID(42)))
}

func TestNewProposalCache_DefaultTTL(t *testing.T) {
	pc := NewProposalCache(offlineCache(t), 0)
	assert.Equal(t, DefaultProposalTTL, pc.ttl)

	pc = NewProposalCache(offlineCache(t), time.Hour)
	assert.Equal(t, time.Hour, pc.ttl)
}
