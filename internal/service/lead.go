package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/leads-server/internal/export"
	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
)

var _ model.LeadStore = (*Lead)(nil)

// Lead orchestrates lead operations over the selected backend. Every
// operation reads the whole collection and mutations write it back, so
// concurrent writers may lose updates.
type Lead struct {
	selector model.BackendSelector
	logger   *logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures Lead.
type Option func(*Lead)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Lead) {
		s.now = now
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Lead) {
		s.newID = newID
	}
}

func NewLead(selector model.BackendSelector, logger *logger.Logger, opts ...Option) *Lead {
	s := &Lead{
		selector: selector,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns leads sorted by creation time, newest first. A non-empty
// search keeps leads whose name or email contains it, ignoring case.
func (s *Lead) List(ctx context.Context, search string) ([]model.Lead, error) {
	leads, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(search))
	if term != "" {
		leads = slices.DeleteFunc(leads, func(l model.Lead) bool {
			return !l.MatchesSearch(term)
		})
	}

	slices.SortStableFunc(leads, func(a, b model.Lead) int {
		return b.CreatedTime().Compare(a.CreatedTime())
	})

	return leads, nil
}

// GetByID returns the lead with id. The boolean is false when it does not exist.
func (s *Lead) GetByID(ctx context.Context, id string) (model.Lead, bool, error) {
	leads, err := s.read(ctx)
	if err != nil {
		return model.Lead{}, false, err
	}

	idx := indexOf(leads, id)
	if idx < 0 {
		return model.Lead{}, false, nil
	}

	return leads[idx], true, nil
}

// Create appends a new lead and persists the collection.
func (s *Lead) Create(ctx context.Context, input model.LeadInput) (model.Lead, error) {
	leads, err := s.read(ctx)
	if err != nil {
		return model.Lead{}, err
	}

	lead := model.NewLead(s.newID(), input, s.now())
	leads = append(leads, lead)

	if err := s.write(ctx, leads); err != nil {
		return model.Lead{}, err
	}

	s.logger.Debug("lead created", "id", lead.ID)
	return lead, nil
}

// Update merges input into the lead with id. The boolean is false when it
// does not exist, in which case nothing is written.
func (s *Lead) Update(ctx context.Context, id string, input model.LeadInput) (model.Lead, bool, error) {
	leads, err := s.read(ctx)
	if err != nil {
		return model.Lead{}, false, err
	}

	idx := indexOf(leads, id)
	if idx < 0 {
		return model.Lead{}, false, nil
	}

	updated := model.Reconcile(leads[idx], input, s.now())
	leads[idx] = updated

	if err := s.write(ctx, leads); err != nil {
		return model.Lead{}, false, err
	}

	s.logger.Debug("lead updated", "id", id)
	return updated, true, nil
}

// Delete removes the lead with id. The boolean is false when it does not
// exist, in which case nothing is written.
func (s *Lead) Delete(ctx context.Context, id string) (bool, error) {
	leads, err := s.read(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf(leads, id)
	if idx < 0 {
		return false, nil
	}

	leads = slices.Delete(leads, idx, idx+1)

	if err := s.write(ctx, leads); err != nil {
		return false, err
	}

	s.logger.Debug("lead deleted", "id", id)
	return true, nil
}

// Export renders the leads List would return as CSV.
func (s *Lead) Export(ctx context.Context, search string) (string, error) {
	leads, err := s.List(ctx, search)
	if err != nil {
		return "", err
	}

	return export.ToCSV(leads), nil
}

// read loads the normalized collection, falling back to the local backend
// when the selected one fails.
func (s *Lead) read(ctx context.Context) ([]model.Lead, error) {
	backend := s.selector.Resolve(ctx)
	fallback := s.selector.Fallback()

	leads, err := backend.Read(ctx)
	if err != nil && backend != fallback {
		s.logger.Warn("failed to read leads, using file storage", "backend", backend.Name(), "error", err)
		leads, err = fallback.Read(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}

	normalized := make([]model.Lead, len(leads))
	for i, lead := range leads {
		normalized[i] = model.Normalize(lead)
	}

	return normalized, nil
}

// write persists the collection, falling back to the local backend when the
// selected one fails.
func (s *Lead) write(ctx context.Context, leads []model.Lead) error {
	backend := s.selector.Resolve(ctx)
	fallback := s.selector.Fallback()

	err := backend.Write(ctx, leads)
	if err != nil && backend != fallback {
		s.logger.Warn("failed to persist leads, using file storage", "backend", backend.Name(), "error", err)
		err = fallback.Write(ctx, leads)
	}
	if err != nil {
		return fmt.Errorf("failed to write leads: %w", err)
	}

	return nil
}

func indexOf(leads []model.Lead, id string) int {
	return slices.IndexFunc(leads, func(l model.Lead) bool {
		return l.ID == id
	})
}
