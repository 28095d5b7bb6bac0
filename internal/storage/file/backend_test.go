package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
	"github.com/dtroode/leads-server/internal/testutil"
)

func sampleLead(id, name string) model.Lead {
	return model.Normalize(model.Lead{
		ID:        id,
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: "2024-01-01T10:00:00.000Z",
		UpdatedAt: "2024-01-01T10:00:00.000Z",
	})
}

func deniedFor(path string) func(string, []byte) error {
	return func(p string, data []byte) error {
		if p == path {
			return &fs.PathError{Op: "open", Path: p, Err: fs.ErrPermission}
		}
		return writeAtomic(p, data)
	}
}

func TestBackend_Read_CreatesMissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "leads.json")

	b := NewBackend(path, "", testutil.MakeNoopLogger())

	leads, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestBackend_Read_MalformedContent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "whitespace", content: "  \n"},
		{name: "broken json", content: "[{\"id\":"},
		{name: "object instead of array", content: "{\"id\":\"1\"}"},
		{name: "null", content: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "leads.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			b := NewBackend(path, "", testutil.MakeNoopLogger())
			leads, err := b.Read(ctx)
			require.NoError(t, err)
			assert.NotNil(t, leads)
			assert.Empty(t, leads)
		})
	}
}

func TestBackend_Read_KeepsRecordsWithOffTypeFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	content := `[
  {"id":"a","name":"Ana","email":"ana@x.com","phone":11999999999,"tracking":"","createdAt":"2024-01-01T10:00:00.000Z"},
  {"id":7,"name":"Bob","phone":"11 99999-9999","tracking":{"gclid":"g1"}}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b := NewBackend(path, "", testutil.MakeNoopLogger())

	leads, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "11999999999", leads[0].Phone)
	assert.Equal(t, "7", leads[1].ID)
	assert.Equal(t, "g1", leads[1].Tracking["gclid"])

	leads = append(leads, sampleLead("c", "carla"))
	require.NoError(t, b.Write(ctx, leads))

	got, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "11999999999", got[0].Phone)
	assert.Equal(t, "7", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestBackend_Write_InPlaceWhenDirectoryRejectsTempFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")

	orig := createTemp
	t.Cleanup(func() { createTemp = orig })
	createTemp = func(dir, pattern string) (*os.File, error) {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrPermission}
	}

	b := NewBackend(path, "", testutil.MakeNoopLogger(), WithFallbackDir(t.TempDir()))
	require.NoError(t, b.Write(ctx, []model.Lead{sampleLead("1", "ana")}))

	assert.False(t, b.FellBack())
	assert.Equal(t, path, b.Path())

	got, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestWriteAtomic_InPlaceRequiresExistingFile(t *testing.T) {
	orig := createTemp
	t.Cleanup(func() { createTemp = orig })
	createTemp = func(dir, pattern string) (*os.File, error) {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: syscall.EROFS}
	}

	err := writeAtomic(filepath.Join(t.TempDir(), "absent.json"), []byte("[]\n"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBackend_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	b := NewBackend(path, "", testutil.MakeNoopLogger())

	leads := []model.Lead{sampleLead("1", "ana"), sampleLead("2", "bob")}
	leads[1].Tracking["gclid"] = "abc"

	require.NoError(t, b.Write(ctx, leads))

	got, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, leads, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(raw) > 0 && raw[len(raw)-1] == '\n')
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"1\",")
}

func TestBackend_Write_FallbackOnPermissionDenied(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	primary := filepath.Join(dir, "data", "leads.json")
	fallbackDir := t.TempDir()

	seeded := sampleLead("seed-1", "ana")
	require.NoError(t, os.MkdirAll(filepath.Dir(primary), 0o755))
	payload, err := encode([]model.Lead{seeded})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(primary, payload, 0o644))

	b := NewBackend(primary, "", testutil.MakeNoopLogger(), WithFallbackDir(fallbackDir))
	b.writeFile = deniedFor(primary)

	leads, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	leads = append(leads, sampleLead("new-1", "bob"))
	require.NoError(t, b.Write(ctx, leads))

	assert.True(t, b.FellBack())
	assert.Equal(t, filepath.Join(fallbackDir, FallbackFileName), b.Path())

	got, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "seed-1", got[0].ID)
	assert.Equal(t, "new-1", got[1].ID)

	// primary is untouched
	raw, err := os.ReadFile(primary)
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(raw))
}

func TestBackend_Prepare_FallbackSeedsFromDefaultFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	primary := filepath.Join(dir, "leads.json")
	fallbackDir := t.TempDir()

	payload, err := encode([]model.Lead{sampleLead("seed-1", "ana")})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(primary, payload, 0o644))

	calls := 0
	b := NewBackend(primary, "", testutil.MakeNoopLogger(), WithFallbackDir(fallbackDir))
	b.initFile = func(path, seedFrom string, lg *logger.Logger) error {
		calls++
		if path == primary {
			return &fs.PathError{Op: "mkdir", Path: path, Err: syscall.EROFS}
		}
		return ensureInitialized(path, seedFrom, lg)
	}

	leads, err := b.Read(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "seed-1", leads[0].ID)
	assert.True(t, b.FellBack())

	_, err = b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "primary and fallback are each prepared once")
}

func TestBackend_Prepare_FallbackSeedsEmptyWhenSeedMissing(t *testing.T) {
	ctx := context.Background()
	primary := filepath.Join(t.TempDir(), "missing", "leads.json")
	fallbackDir := t.TempDir()

	b := NewBackend(primary, "", testutil.MakeNoopLogger(), WithFallbackDir(fallbackDir))
	b.initFile = func(path, seedFrom string, lg *logger.Logger) error {
		if path == primary {
			return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrNotExist}
		}
		return ensureInitialized(path, seedFrom, lg)
	}

	leads, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	raw, err := os.ReadFile(filepath.Join(fallbackDir, FallbackFileName))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestBackend_Override_DisablesFallback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.json")
	fallbackDir := t.TempDir()

	b := NewBackend(filepath.Join(dir, "default.json"), override, testutil.MakeNoopLogger(), WithFallbackDir(fallbackDir))
	b.writeFile = deniedFor(override)

	err := b.Write(ctx, []model.Lead{sampleLead("1", "ana")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, b.FellBack())
	assert.Equal(t, override, b.Path())

	_, statErr := os.Stat(filepath.Join(fallbackDir, FallbackFileName))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestBackend_Write_FallbackFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	primary := filepath.Join(t.TempDir(), "leads.json")
	fallbackDir := t.TempDir()

	b := NewBackend(primary, "", testutil.MakeNoopLogger(), WithFallbackDir(fallbackDir))
	b.writeFile = func(p string, _ []byte) error {
		return &fs.PathError{Op: "open", Path: p, Err: fs.ErrPermission}
	}

	err := b.Write(ctx, []model.Lead{sampleLead("1", "ana")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write fallback leads file")

	// already on the fallback path: no second switch
	err = b.Write(ctx, []model.Lead{sampleLead("1", "ana")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write leads file")
}

func TestBackend_Write_OtherErrorsDoNotFallback(t *testing.T) {
	ctx := context.Background()
	primary := filepath.Join(t.TempDir(), "leads.json")

	b := NewBackend(primary, "", testutil.MakeNoopLogger(), WithFallbackDir(t.TempDir()))
	b.writeFile = func(string, []byte) error {
		return errors.New("disk full")
	}

	err := b.Write(ctx, nil)
	require.Error(t, err)
	assert.False(t, b.FellBack())
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		s := NewSeed(filepath.Join(dir, "absent.json"))
		assert.Empty(t, s.Seed(ctx))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
		assert.Empty(t, NewSeed(path).Seed(ctx))
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "good.json")
		payload, err := encode([]model.Lead{sampleLead("1", "ana")})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, payload, 0o644))

		leads := NewSeed(path).Seed(ctx)
		require.Len(t, leads, 1)
		assert.Equal(t, "1", leads[0].ID)
	})
}
