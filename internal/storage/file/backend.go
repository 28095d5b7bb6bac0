package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
)

// FallbackFileName is the document name used inside the fallback directory.
const FallbackFileName = "leads.json"

var _ model.Backend = (*Backend)(nil)

// Backend stores the lead collection as a JSON document on the local filesystem.
type Backend struct {
	mu          sync.Mutex
	path        string
	seedPath    string
	overridden  bool
	fallbackDir string
	prepared    bool
	fellBack    bool
	logger      *logger.Logger

	writeFile func(path string, data []byte) error
	initFile  func(path, seedFrom string, logger *logger.Logger) error
}

// Option configures Backend.
type Option func(*Backend)

// WithFallbackDir sets the directory used once the primary path is unwritable.
func WithFallbackDir(dir string) Option {
	return func(b *Backend) {
		b.fallbackDir = dir
	}
}

// NewBackend creates a file backend. When override is non-empty it is used
// as the storage path and the fallback switch is disabled. Otherwise the
// default file at seedPath is the primary path.
func NewBackend(seedPath, override string, logger *logger.Logger, opts ...Option) *Backend {
	b := &Backend{
		path:        seedPath,
		seedPath:    seedPath,
		fallbackDir: os.TempDir(),
		logger:      logger,
		writeFile:   writeAtomic,
		initFile:    ensureInitialized,
	}
	if override != "" {
		b.path = override
		b.overridden = true
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "file"
}

// Path returns the currently active storage path.
func (b *Backend) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// FellBack reports whether the backend switched to the fallback path.
func (b *Backend) FellBack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fellBack
}

// Read returns the stored collection. Unreadable or malformed documents are
// logged and read as an empty collection.
func (b *Backend) Read(_ context.Context) ([]model.Lead, error) {
	path, err := b.prepare()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		b.logger.Error("failed to read leads file", "path", path, "error", err)
		return []model.Lead{}, nil
	}

	leads, err := decode(raw)
	if err != nil {
		b.logger.Warn("failed to parse leads file, treating as empty", "path", path, "error", err)
		return []model.Lead{}, nil
	}

	return leads, nil
}

// Write replaces the stored document with leads.
func (b *Backend) Write(_ context.Context, leads []model.Lead) error {
	payload, err := encode(leads)
	if err != nil {
		return fmt.Errorf("failed to encode leads: %w", err)
	}

	path, err := b.prepare()
	if err != nil {
		return err
	}

	err = b.writeFile(path, payload)
	if err == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fellBack || !b.shouldFallback(err) {
		return fmt.Errorf("failed to write leads file: %w", err)
	}

	b.logger.Warn("leads file is not writable, switching to fallback", "path", path, "error", err)
	path, err = b.switchToFallback()
	if err != nil {
		return err
	}

	if err := b.writeFile(path, payload); err != nil {
		return fmt.Errorf("failed to write fallback leads file: %w", err)
	}

	return nil
}

// prepare makes sure the active path exists. The first successful call is
// memoized; a rejected primary path switches to the fallback once.
func (b *Backend) prepare() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.prepared {
		return b.path, nil
	}

	err := b.initFile(b.path, "", b.logger)
	if err == nil {
		b.prepared = true
		return b.path, nil
	}

	if !b.shouldFallback(err) {
		return "", fmt.Errorf("failed to prepare leads file: %w", err)
	}

	b.logger.Warn("leads file cannot be created, switching to fallback", "path", b.path, "error", err)
	return b.switchToFallback()
}

// switchToFallback must be called with mu held.
func (b *Backend) switchToFallback() (string, error) {
	fallback := filepath.Join(b.fallbackDir, FallbackFileName)
	if err := b.initFile(fallback, b.seedPath, b.logger); err != nil {
		return "", fmt.Errorf("failed to prepare fallback leads file: %w", err)
	}

	b.path = fallback
	b.prepared = true
	b.fellBack = true
	b.logger.Info("using fallback leads file", "path", fallback)

	return fallback, nil
}

func (b *Backend) shouldFallback(err error) bool {
	if b.overridden {
		return false
	}
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.EROFS)
}

// ensureInitialized creates the parent directory and, when missing, the file
// itself with seed content or an empty array.
func ensureInitialized(path, seedFrom string, logger *logger.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	payload := []byte("[]\n")
	if seedFrom != "" {
		raw, err := os.ReadFile(seedFrom)
		switch {
		case err != nil:
			logger.Warn("failed to read leads seed file", "path", seedFrom, "error", err)
		case len(bytes.TrimSpace(raw)) > 0:
			payload = raw
			if !bytes.HasSuffix(payload, []byte("\n")) {
				payload = append(payload, '\n')
			}
		}
	}

	return os.WriteFile(path, payload, 0o644)
}

var createTemp = os.CreateTemp

// writeAtomic writes data to a temp file next to path and renames it over path.
// When the directory rejects the temp file, path is rewritten in place.
func writeAtomic(path string, data []byte) error {
	tmp, err := createTemp(filepath.Dir(path), ".leads-*.tmp")
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS) {
		return writeInPlace(path, data)
	}
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}

func writeInPlace(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encode(leads []model.Lead) ([]byte, error) {
	if leads == nil {
		leads = []model.Lead{}
	}
	payload, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}

func decode(raw []byte) ([]model.Lead, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []model.Lead{}, nil
	}

	var leads []model.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	return leads, nil
}
