package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_GetSetDel(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.Equal(t, ErrMiss, err)

	require.NoError(t, kv.Set(ctx, "k1", "v1", 0))
	v, err := kv.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, kv.Del(ctx, "k1"))
	_, err = kv.Get(ctx, "k1")
	assert.Equal(t, ErrMiss, err)
}

func TestMemoryKV_TTLExpiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := kv.Get(ctx, "short")
	assert.Equal(t, ErrMiss, err)
}

func TestMemoryKV_ScanKeysPrefix(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "authz|admin-1|dec|a", "x", 0))
	require.NoError(t, kv.Set(ctx, "authz|admin-1|branches|r", "y", 0))
	require.NoError(t, kv.Set(ctx, "authz|admin-2|dec|b", "z", 0))

	keys, err := kv.ScanKeys(ctx, "authz|admin-1|*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, kv.Del(ctx, keys...))
	remaining, err := kv.ScanKeys(ctx, "authz|*")
	require.NoError(t, err)
	assert.Equal(t, []string{"authz|admin-2|dec|b"}, remaining)
}
