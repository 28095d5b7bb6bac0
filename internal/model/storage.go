package model

import (
	"context"
	"errors"
)

var (
	// ErrBlobNotFound is returned by a BlobStore when the key does not exist.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBackendUnavailable reports a remote backend that could not serve a read.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Backend reads and writes the whole lead collection.
type Backend interface {
	Read(ctx context.Context) ([]Lead, error)
	Write(ctx context.Context, leads []Lead) error
	Name() string
}

// BlobStore is a remote key-value document store.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// SeedSource provides the initial collection for an empty store.
type SeedSource interface {
	Seed(ctx context.Context) []Lead
}

// BackendSelector picks the backend for an operation. Fallback is the local
// backend used when the selected one fails.
type BackendSelector interface {
	Resolve(ctx context.Context) Backend
	Fallback() Backend
}
