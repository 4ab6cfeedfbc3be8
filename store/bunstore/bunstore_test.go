package bunstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-auth-client/store/bunstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *bunstore.Store {
	t.Helper()

	store, err := bunstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "access-token", "tok1"))

	value, ok, err := store.Get(ctx, "access-token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok1", value)

	require.NoError(t, store.Remove(ctx, "access-token"))
	_, ok, err = store.Get(ctx, "access-token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Remove(ctx, "access-token"))
}

func TestStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store, err := bunstore.Open(ctx, ":memory:", bunstore.WithClock(clock))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "user", `{"userId":"u1"}`))

	now = now.Add(time.Minute)
	require.NoError(t, store.Set(ctx, "user", `{"userId":"u2"}`))

	value, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"userId":"u2"}`, value)
}

func TestStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "pending-email", "a@x.com"))
	require.NoError(t, store.Set(ctx, "pending-is-registration", "true"))

	require.NoError(t, store.Remove(ctx, "pending-email"))

	_, ok, err := store.Get(ctx, "pending-is-registration")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Init(ctx))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", value)
}
