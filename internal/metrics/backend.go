package metrics

import (
	"context"
	"time"

	"github.com/dtroode/leads-server/internal/model"
)

var _ model.Backend = (*Backend)(nil)

// Backend decorates a model.Backend with operation metrics.
type Backend struct {
	next    model.Backend
	metrics *Metrics
}

// Instrument wraps next. With nil metrics next is returned unchanged.
func Instrument(next model.Backend, m *Metrics) model.Backend {
	if m == nil {
		return next
	}
	return &Backend{next: next, metrics: m}
}

// Name returns the wrapped backend name.
func (b *Backend) Name() string {
	return b.next.Name()
}

// Read reads through the wrapped backend.
func (b *Backend) Read(ctx context.Context) ([]model.Lead, error) {
	start := time.Now()
	leads, err := b.next.Read(ctx)
	b.metrics.ObserveStorage(b.next.Name(), "read", time.Since(start), err)
	return leads, err
}

// Write writes through the wrapped backend.
func (b *Backend) Write(ctx context.Context, leads []model.Lead) error {
	start := time.Now()
	err := b.next.Write(ctx, leads)
	b.metrics.ObserveStorage(b.next.Name(), "write", time.Since(start), err)
	return err
}
