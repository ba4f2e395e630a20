package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leengari/atomdb/internal/domain/data"
	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"gotest.tools/v3/assert"
)

func TestManagerSaveLoad(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(c.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "atomdb.snap")
			m := NewManager(path, c, nil)

			db := sampleDB(t)
			assert.NilError(t, m.Save(db))

			got, err := m.Load()
			assert.NilError(t, err)
			assert.Assert(t, db.Equal(got))
		})
	}
}

func TestManagerSaveReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atomdb.json")
	m := NewManager(path, JSONCodec{}, nil)

	db := sampleDB(t)
	assert.NilError(t, m.Save(db))

	assert.NilError(t, db.DropTable("users"))
	_, err := db.InsertRow("empty", data.NewRow(nil))
	assert.NilError(t, err)
	assert.NilError(t, m.Save(db))

	got, err := m.Load()
	assert.NilError(t, err)
	assert.Assert(t, db.Equal(got))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	assert.NilError(t, err)
	assert.Equal(t, len(entries), 1)
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope.snap"), BinaryCodec{}, nil)

	_, err := m.Load()
	var mf *dberrors.MissingFileError
	if !errors.As(err, &mf) {
		t.Fatalf("Expected MissingFileError, got %v", err)
	}
}

func TestManagerLoadCorruptCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap")
	assert.NilError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := NewManager(path, JSONCodec{}, nil).Load()
	var cd *dberrors.CorruptDataError
	if !errors.As(err, &cd) {
		t.Fatalf("Expected CorruptDataError, got %v", err)
	}
	assert.Equal(t, cd.Path, path)
}

func TestManagerIOFailures(t *testing.T) {
	dir := t.TempDir()

	// reading a directory is not a missing file
	_, err := NewManager(dir, JSONCodec{}, nil).Load()
	var ioErr *dberrors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError on load, got %v", err)
	}

	// saving into a directory that does not exist
	err = NewManager(filepath.Join(dir, "missing", "db.snap"), JSONCodec{}, nil).Save(sampleDB(t))
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError on save, got %v", err)
	}
}
