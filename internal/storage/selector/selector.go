package selector

import (
	"context"
	"sync"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
)

// Factory builds the remote backend. It is called at most once per Selector.
type Factory func(ctx context.Context) (model.Backend, error)

// Selector picks the backend leads are stored in. The remote backend is
// initialized once; a disabled or failed remote backend is never retried.
type Selector struct {
	enabled bool
	factory Factory
	file    model.Backend
	logger  *logger.Logger

	once   sync.Once
	remote model.Backend
}

// New creates a Selector. When enabled is false the factory is never called.
func New(enabled bool, factory Factory, file model.Backend, logger *logger.Logger) *Selector {
	return &Selector{
		enabled: enabled,
		factory: factory,
		file:    file,
		logger:  logger,
	}
}

// Resolve returns the remote backend when it is enabled and initialized,
// otherwise the file backend. Concurrent first callers share one
// initialization.
func (s *Selector) Resolve(ctx context.Context) model.Backend {
	s.once.Do(func() {
		s.remote = s.initRemote(context.WithoutCancel(ctx))
	})

	if s.remote != nil {
		return s.remote
	}
	return s.file
}

// Fallback returns the file backend.
func (s *Selector) Fallback() model.Backend {
	return s.file
}

func (s *Selector) initRemote(ctx context.Context) model.Backend {
	if !s.enabled || s.factory == nil {
		s.logger.Info("remote store disabled, using file storage")
		return nil
	}

	backend, err := s.factory(ctx)
	if err != nil {
		s.logger.Warn("remote store unavailable, using file storage", "error", err)
		return nil
	}

	s.logger.Info("using remote store", "backend", backend.Name())
	return backend
}
