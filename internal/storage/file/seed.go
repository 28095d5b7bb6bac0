package file

import (
	"context"
	"os"

	"github.com/dtroode/leads-server/internal/model"
)

var _ model.SeedSource = (*Seed)(nil)

// Seed reads the default data file used to initialize empty stores.
type Seed struct {
	path string
}

// NewSeed creates a Seed reading from path.
func NewSeed(path string) *Seed {
	return &Seed{path: path}
}

// Seed returns the leads in the seed file, or an empty list when the file is
// missing, empty or malformed.
func (s *Seed) Seed(_ context.Context) []model.Lead {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return []model.Lead{}
	}

	leads, err := decode(raw)
	if err != nil {
		return []model.Lead{}
	}

	return leads
}
