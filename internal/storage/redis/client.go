package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dtroode/leads-server/internal/model"
)

const (
	fieldData        = "data"
	fieldContentType = "content_type"
)

// redisAPI is the subset of *redis.Client used by Client.
type redisAPI interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ model.BlobStore = (*Client)(nil)

// Client is a model.BlobStore keeping each document in a redis hash
// named "<store>:<key>".
type Client struct {
	api   redisAPI
	store string
}

// NewClient creates a client and checks the connection.
func NewClient(ctx context.Context, api redisAPI, store string) (*Client, error) {
	if err := api.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{api: api, store: store}, nil
}

// Get returns the document stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.api.HGet(ctx, c.hashKey(key), fieldData).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return data, nil
}

// Put stores data and its content type under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := c.api.HSet(ctx, c.hashKey(key), fieldData, data, fieldContentType, contentType).Err()
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func (c *Client) hashKey(key string) string {
	return c.store + ":" + key
}
