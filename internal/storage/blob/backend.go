package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
)

const (
	// DocumentKey is the key of the lead collection inside the store.
	DocumentKey = "leads.json"
	// ContentType is declared on every write.
	ContentType = "application/json"
)

var _ model.Backend = (*Backend)(nil)

// Backend stores the lead collection as a single document in a BlobStore.
type Backend struct {
	store  model.BlobStore
	seed   model.SeedSource
	logger *logger.Logger
}

// NewBackend creates a blob backend.
func NewBackend(store model.BlobStore, seed model.SeedSource, logger *logger.Logger) *Backend {
	return &Backend{
		store:  store,
		seed:   seed,
		logger: logger,
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "blob"
}

// Read fetches the collection. A missing document is initialized from the
// seed source. Any other failure is reported as model.ErrBackendUnavailable.
func (b *Backend) Read(ctx context.Context) ([]model.Lead, error) {
	raw, err := b.store.Get(ctx, DocumentKey)
	if errors.Is(err, model.ErrBlobNotFound) {
		return b.initialize(ctx)
	}
	if err != nil {
		b.logger.Error("failed to read leads from blob store", "key", DocumentKey, "error", err)
		return nil, fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return b.initialize(ctx)
	}

	var leads []model.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		b.logger.Error("failed to decode leads from blob store", "key", DocumentKey, "error", err)
		return nil, fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	if leads == nil {
		leads = []model.Lead{}
	}

	return leads, nil
}

// Write stores the collection.
func (b *Backend) Write(ctx context.Context, leads []model.Lead) error {
	if leads == nil {
		leads = []model.Lead{}
	}

	payload, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode leads: %w", err)
	}

	if err := b.store.Put(ctx, DocumentKey, payload, ContentType); err != nil {
		b.logger.Error("failed to write leads to blob store", "key", DocumentKey, "error", err)
		return fmt.Errorf("failed to write leads to blob store: %w", err)
	}

	return nil
}

func (b *Backend) initialize(ctx context.Context) ([]model.Lead, error) {
	seed := b.seed.Seed(ctx)
	b.logger.Info("initializing blob store document", "key", DocumentKey, "leads", len(seed))

	if err := b.Write(ctx, seed); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}

	return seed, nil
}
