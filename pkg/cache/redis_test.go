package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "lc"), mr
}

func TestRedisStore_SetGetExpire(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "jobs_{}", []byte(`{"id":1}`), time.Second))
	assert.True(t, mr.Exists("lc:jobs_{}"))

	b, ok, err := s.Get(ctx, "jobs_{}")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(b))

	mr.FastForward(1500 * time.Millisecond)

	_, ok, err = s.Get(ctx, "jobs_{}")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_MissIsNotAnError(t *testing.T) {
	s, _ := newTestRedisStore(t)

	b, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestRedisStore_ZeroTTLRemovesKey(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 0))
	assert.False(t, mr.Exists("lc:k"))
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	for _, k := range []string{"ns_{}", `ns_{"page":"2"}`, "other_{}"} {
		require.NoError(t, s.Set(ctx, k, []byte("x"), time.Minute))
	}
	// a key outside the store prefix must survive
	require.NoError(t, mr.Set("foreign:ns_{}", "x"))

	n, err := s.DeletePrefix(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists("lc:ns_{}"))
	assert.True(t, mr.Exists("lc:other_{}"))
	assert.True(t, mr.Exists("foreign:ns_{}"))
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jobs", "jobs"},
		{"lc:jobs_{}", "lc:jobs_{}"},
		{"a*b", `a\*b`},
		{"q?[x]", `q\?\[x\]`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeGlob(tt.in), tt.in)
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.DefaultTTL())

	mr := miniredis.RunT(t)
	c, err = Open(ctx, Config{Driver: "Redis", Addr: mr.Addr(), Prefix: "lc", DefaultTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, time.Minute, c.DefaultTTL())

	_, err = Open(ctx, Config{Driver: "memcached"})
	assert.Error(t, err)
}
