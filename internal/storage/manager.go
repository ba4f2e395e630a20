package storage

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
)

// Manager persists whole-database snapshots to a single file.
// It is not safe for concurrent use; the engine guard serializes calls.
type Manager struct {
	path   string
	codec  Codec
	logger *slog.Logger
}

// NewManager creates a manager for the snapshot at path
func NewManager(path string, codec Codec, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{path: path, codec: codec, logger: logger}
}

// Path returns the snapshot location
func (m *Manager) Path() string { return m.path }

// Codec returns the snapshot encoding in use
func (m *Manager) Codec() Codec { return m.codec }

// Save encodes the whole database and replaces the snapshot file.
// The bytes go to a sibling temp file that is synced and renamed over
// the target, so a failed save leaves the previous snapshot intact.
func (m *Manager) Save(db *schema.Database) error {
	if db == nil {
		return fmt.Errorf("cannot save nil database")
	}

	b, err := m.codec.Encode(db)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := writeFileAtomic(m.path, b); err != nil {
		return err
	}

	m.logger.Debug("snapshot saved",
		slog.String("path", m.path),
		slog.String("codec", m.codec.Name()),
		slog.Int("bytes", len(b)),
		slog.Int("table_count", len(db.Tables)),
	)
	return nil
}

// Load reads and decodes the snapshot file
func (m *Manager) Load() (*schema.Database, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, &errors.MissingFileError{Path: m.path}
		}
		return nil, &errors.IOError{Op: "read", Path: m.path, Err: err}
	}

	db, err := m.codec.Decode(b)
	if err != nil {
		var corrupt *errors.CorruptDataError
		if stderrors.As(err, &corrupt) {
			corrupt.Path = m.path
			return nil, corrupt
		}
		return nil, &errors.CorruptDataError{Path: m.path, Err: err}
	}

	m.logger.Debug("snapshot loaded",
		slog.String("path", m.path),
		slog.String("codec", m.codec.Name()),
		slog.Int("table_count", len(db.Tables)),
	)
	return db, nil
}

// writeFileAtomic writes data to path using temp + fsync + rename
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return &errors.IOError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure below
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &errors.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &errors.IOError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &errors.IOError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &errors.IOError{Op: "chmod", Path: path, Err: err}
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		return &errors.IOError{Op: "rename", Path: path, Err: err}
	}
	committed = true
	return nil
}
