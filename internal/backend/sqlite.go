package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// sqliteSidecars are the files SQLite keeps next to the database.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

type sqliteStrategy struct {
	deps Deps
}

// Drop deletes the database file and its sidecars.
func (s *sqliteStrategy) Drop(_ context.Context, d config.Descriptor) error {
	if conn.InMemory(d) {
		return nil
	}

	for _, suffix := range sqliteSidecars {
		path := d.Database + suffix
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	s.deps.Logger.Debug("removed database file", "path", d.Database)
	return nil
}

// Create leaves an existing file untouched and reports StatusAlreadyExists.
// This only matters when Drop was skipped, in which case stale data survives.
func (s *sqliteStrategy) Create(ctx context.Context, d config.Descriptor) (Status, error) {
	if !conn.InMemory(d) {
		if _, err := os.Stat(d.Database); err == nil {
			s.deps.Logger.Warn("database already exists", "path", d.Database)
			return StatusAlreadyExists, nil
		}

		if err := os.MkdirAll(filepath.Dir(d.Database), 0o755); err != nil {
			return 0, newCreationError(d.AdapterName, d.Database, Options{}, err)
		}
	}

	// Connecting creates the file.
	if _, err := s.deps.Handle.Establish(ctx, d); err != nil {
		return 0, newCreationError(d.AdapterName, d.Database, Options{}, err)
	}

	s.deps.Logger.Info("database created", "path", d.Database)
	return StatusCreated, nil
}
