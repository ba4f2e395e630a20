package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/atomdb/internal/config"
	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/seed"
	"github.com/leengari/atomdb/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ATOMDB_STORAGE_PATH", "from-env.bin")
	t.Setenv("ATOMDB_MODE", "server")

	cfg, err := loadConfig([]string{"-snapshot", "from-flag.json", "-format", "json"})
	assert.NilError(t, err)

	assert.Equal(t, cfg.Storage.Path, "from-flag.json")
	assert.Equal(t, cfg.Storage.Format, storage.FormatJSON)
	// untouched flags keep the env value rather than the flag default
	assert.Equal(t, cfg.Mode, config.ModeServer)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	_, err := loadConfig([]string{"-format", "json", "-compression", "zstd"})
	assert.ErrorContains(t, err, "storage")

	_, err = loadConfig([]string{"extra"})
	assert.ErrorContains(t, err, "unknown arguments")

	_, err = loadConfig([]string{"-mode", "daemon"})
	assert.ErrorContains(t, err, "mode")
}

func TestOpenDatabaseMissingSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.bin")
	store := storage.NewManager(path, storage.BinaryCodec{}, discardLogger())

	db, fresh, err := openDatabase(store, discardLogger())
	assert.NilError(t, err)
	assert.Assert(t, fresh)
	assert.Equal(t, len(db.ListTables()), 0)

	// nothing is written until the engine saves
	_, err = os.Stat(path)
	assert.Assert(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenDatabaseExistingSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.bin")
	store := storage.NewManager(path, storage.BinaryCodec{}, discardLogger())

	want := schema.NewDatabase()
	assert.NilError(t, seed.Demo(want))
	assert.NilError(t, store.Save(want))

	db, fresh, err := openDatabase(store, discardLogger())
	assert.NilError(t, err)
	assert.Assert(t, !fresh)
	assert.Assert(t, db.Equal(want))
}

func TestOpenDatabaseKeepsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.bin")
	assert.NilError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	store := storage.NewManager(path, storage.BinaryCodec{}, discardLogger())

	_, _, err := openDatabase(store, discardLogger())
	var corrupt *dberrors.CorruptDataError
	assert.Assert(t, errors.As(err, &corrupt), "got %v", err)

	got, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(got), "garbage")
}
