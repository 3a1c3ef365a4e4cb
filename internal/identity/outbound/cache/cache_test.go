package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, instrument.NewNoop(), 11*time.Minute), client
}

func TestPairKey_Stable(t *testing.T) {
	assert.Equal(t, pairKey("Bob", "b@example.com"), pairKey("Bob", "b@example.com"))
	assert.NotEqual(t, pairKey("Bob", "b@example.com"), pairKey("Bo", "bb@example.com"))
}

func TestKeys_ShareHashTag(t *testing.T) {
	tag := func(key string) string {
		start := strings.Index(key, "{")
		end := strings.Index(key, "}")
		return key[start+1 : end]
	}

	assert.Equal(t, "identity:otp", tag(challengeKey("01J00000000000000000000001")))
	assert.Equal(t, tag(challengeKey("x")), tag(pairKey("Bob", "b@example.com")))
}

func TestCache_ChallengeLifecycle(t *testing.T) {
	// Arrange
	c, client := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 123, time.UTC)
	first := entity.Challenge{ID: "01J00000000000000000000001", Username: "Bob", Email: "b@example.com", CodeHash: "h1", CreatedAt: now}
	second := entity.Challenge{ID: "01J00000000000000000000002", Username: "Bob", Email: "b@example.com", CodeHash: "h2", CreatedAt: now.Add(time.Minute)}

	// Act & Assert
	require.NoError(t, c.UpsertChallenge(ctx, first))
	require.NoError(t, c.UpsertChallenge(ctx, second))

	_, err := c.ReserveAttempt(ctx, first.ID, 3)
	assert.ErrorIs(t, err, goerror.ErrNotFound, "superseded id must stop resolving")

	got, err := c.ReserveAttempt(ctx, second.ID, 3)
	require.NoError(t, err)
	want := second
	want.Attempts = 1
	assert.Equal(t, want, *got)

	ttl, err := client.PTTL(ctx, challengeKey(second.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 10*time.Minute)

	for n := 2; n <= 3; n++ {
		got, err = c.ReserveAttempt(ctx, second.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, n, got.Attempts)
	}
	_, err = c.ReserveAttempt(ctx, second.ID, 3)
	assert.ErrorIs(t, err, goerror.ErrNotFound, "attempts stop at the limit")

	ok, err := c.ConsumeChallenge(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ConsumeChallenge(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.ReserveAttempt(ctx, second.ID, 3)
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	exists, err := client.Exists(ctx, pairKey("Bob", "b@example.com")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestCache_ConcurrentConsume(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	chal := entity.Challenge{ID: "01J00000000000000000000009", Username: "Eve", Email: "e@example.com", CodeHash: "h", CreatedAt: time.Now()}
	require.NoError(t, c.UpsertChallenge(ctx, chal))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := c.ConsumeChallenge(ctx, chal.ID); err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestCache_ConcurrentReserveAttempt(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	chal := entity.Challenge{ID: "01J00000000000000000000010", Username: "Mallory", Email: "m@example.com", CodeHash: "h", CreatedAt: time.Now()}
	require.NoError(t, c.UpsertChallenge(ctx, chal))

	// Act
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ReserveAttempt(ctx, chal.ID, 3); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 3, granted)
}
