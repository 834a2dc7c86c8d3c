package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	c := NewFromUniversal(rdb, DefaultConfig(), logger.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "missing addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "sentinel without master", mutate: func(c *Config) {
			c.Mode = ModeSentinel
			c.SentinelAddrs = []string{"s1:26379"}
		}, wantErr: true},
		{name: "sentinel", mutate: func(c *Config) {
			c.Mode = ModeSentinel
			c.SentinelAddrs = []string{"s1:26379"}
			c.MasterName = "mymaster"
		}},
		{name: "cluster unsupported", mutate: func(c *Config) { c.Mode = "cluster" }, wantErr: true},
		{name: "db out of range", mutate: func(c *Config) { c.DB = 16 }, wantErr: true},
		{name: "idle exceeds pool", mutate: func(c *Config) { c.MinIdleConns = 20 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStringOperations(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.True(t, IsNil(err))

	n, err := c.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestListOperations(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.LPush(ctx, "q", "a", "b", "a")
	require.NoError(t, err)

	n, err := c.LLen(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	removed, err := c.LRem(ctx, "q", 0, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	vals, err := c.LRange(ctx, "q", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, vals)

	val, err := c.RPop(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "b", val)

	_, err = c.RPop(ctx, "q")
	assert.True(t, IsNil(err))
}

func TestSetOperations(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.SAdd(ctx, "s", "x", "y")
	require.NoError(t, err)
	_, err = c.SRem(ctx, "s", "x")
	require.NoError(t, err)

	n, err := c.SCard(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
