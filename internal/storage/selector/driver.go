package selector

import (
	"context"
	"fmt"
	"io"
	"strings"

	goredis "github.com/go-redis/redis/v8"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/leads-server/internal/config"
	"github.com/dtroode/leads-server/internal/model"
	"github.com/dtroode/leads-server/internal/storage/minio"
	"github.com/dtroode/leads-server/internal/storage/nats"
	"github.com/dtroode/leads-server/internal/storage/redis"
)

// Supported remote store drivers.
const (
	DriverMinIO = "minio"
	DriverRedis = "redis"
	DriverNATS  = "nats"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore connects the configured remote store driver. The returned closer
// releases the underlying connection.
func OpenStore(ctx context.Context, cfg *config.Config) (model.BlobStore, io.Closer, error) {
	switch normalizeDriver(cfg.Blob.Driver) {
	case DriverMinIO:
		client, err := miniogo.New(cfg.MinIO.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		store, err := minio.NewClient(ctx, client, cfg.Blob.StoreName)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := redis.NewClient(ctx, client, cfg.Blob.StoreName)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil

	case DriverNATS:
		store, err := nats.Connect(ctx, cfg.NATS.URL, cfg.Blob.StoreName)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unsupported blob driver %q", cfg.Blob.Driver)
	}
}

func normalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		return DriverMinIO
	}
	return driver
}
