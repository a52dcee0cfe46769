package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/debrief/pkg/adapters/redis"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisSummarySink_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunSummarySinkContract(t, redis.NewSummarySink(client, ""))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID)))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiration happens on the miniredis clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.False(t, mr.Exists(redis.DefaultPrefix+"sessions"), "expired entries are pruned from the index")
}

func TestRedisStore_ListSorted(t *testing.T) {
	_, client := setup(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, id, domain.NewState(id)))
	}

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("team-a:"))

	require.NoError(t, store.Save(context.Background(), "s1", domain.NewState("s1")))
	assert.True(t, mr.Exists("team-a:session:s1"))
}

func TestRedisStore_CorruptedEntry(t *testing.T) {
	mr, client := setup(t)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"session:bad", "{"))

	_, err := redis.NewFromClient(client).Load(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := redis.NewClient("http://nope")
	assert.Error(t, err)
}
