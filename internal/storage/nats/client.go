package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/dtroode/leads-server/internal/model"
)

// kvAPI is the subset of a JetStream key-value bucket used by Client.
type kvAPI interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Wrapper to adapt jetstream.KeyValue to kvAPI.
type kvWrapper struct{ kv jetstream.KeyValue }

func (w kvWrapper) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := w.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

func (w kvWrapper) Put(ctx context.Context, key string, data []byte) error {
	_, err := w.kv.Put(ctx, key, data)
	return err
}

var _ model.BlobStore = (*Client)(nil)

// Client is a model.BlobStore backed by a JetStream key-value bucket.
// KV entries carry no metadata, so content types are not persisted.
type Client struct {
	api  kvAPI
	conn *nats.Conn
}

// Connect dials url and opens the bucket, creating it when missing.
func Connect(ctx context.Context, url, bucket string) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("leads-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "lead collection documents",
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open key-value bucket %s: %w", bucket, err)
	}

	c := NewClientWithAPI(kvWrapper{kv: kv})
	c.conn = conn
	return c, nil
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(api kvAPI) *Client {
	return &Client{api: api}
}

// Get returns the value stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.api.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, model.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return data, nil
}

// Put stores data under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := c.api.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

// Close drains the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
