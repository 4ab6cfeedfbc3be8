package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-auth-client/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "access-token", "tok1"))

	value, ok, err := store.Get(ctx, "access-token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok1", value)

	require.NoError(t, store.Set(ctx, "access-token", "tok2"))
	value, _, _ = store.Get(ctx, "access-token")
	assert.Equal(t, "tok2", value)

	require.NoError(t, store.Remove(ctx, "access-token"))
	_, ok, err = store.Get(ctx, "access-token")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing a missing key is a no-op.
	require.NoError(t, store.Remove(ctx, "access-token"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.Set(ctx, "shared", "value")
				_, _, _ = store.Get(ctx, "shared")
				_ = store.Remove(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
