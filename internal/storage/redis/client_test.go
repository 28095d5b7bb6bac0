package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/leads-server/internal/model"
)

// fakeRedis implements redisAPI for testing without network.
type fakeRedis struct {
	pingErr error

	hgetVal string
	hgetErr error
	hgetKey string

	hsetErr    error
	hsetKey    string
	hsetValues []interface{}
}

func (f *fakeRedis) HGet(_ context.Context, key, _ string) *redis.StringCmd {
	f.hgetKey = key
	return redis.NewStringResult(f.hgetVal, f.hgetErr)
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.hsetKey = key
	f.hsetValues = values
	return redis.NewIntResult(int64(len(values)/2), f.hsetErr)
}

func (f *fakeRedis) Ping(_ context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.pingErr)
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		c, err := NewClient(ctx, &fakeRedis{}, "leads")
		require.NoError(t, err)
		assert.Equal(t, "leads", c.store)
	})

	t.Run("ping error", func(t *testing.T) {
		c, err := NewClient(ctx, &fakeRedis{pingErr: errors.New("refused")}, "leads")
		assert.Nil(t, c)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping redis")
	})
}

func TestClient_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeRedis{hgetVal: "[]"}
		c := &Client{api: api, store: "leads"}
		data, err := c.Get(ctx, "leads.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), data)
		assert.Equal(t, "leads:leads.json", api.hgetKey)
	})

	t.Run("missing key", func(t *testing.T) {
		c := &Client{api: &fakeRedis{hgetErr: redis.Nil}, store: "leads"}
		_, err := c.Get(ctx, "leads.json")
		assert.ErrorIs(t, err, model.ErrBlobNotFound)
	})

	t.Run("error", func(t *testing.T) {
		c := &Client{api: &fakeRedis{hgetErr: errors.New("timeout")}, store: "leads"}
		_, err := c.Get(ctx, "leads.json")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrBlobNotFound)
		assert.Contains(t, err.Error(), "failed to get document")
	})
}

func TestClient_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeRedis{}
		c := &Client{api: api, store: "leads"}
		err := c.Put(ctx, "leads.json", []byte("[]"), "application/json")
		require.NoError(t, err)
		assert.Equal(t, "leads:leads.json", api.hsetKey)
		assert.Equal(t, []interface{}{"data", []byte("[]"), "content_type", "application/json"}, api.hsetValues)
	})

	t.Run("error", func(t *testing.T) {
		c := &Client{api: &fakeRedis{hsetErr: errors.New("READONLY")}, store: "leads"}
		err := c.Put(ctx, "leads.json", []byte("[]"), "application/json")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set document")
	})
}
