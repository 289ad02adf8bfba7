package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnvRoot names an explicit project root, checked before directory traversal.
const EnvRoot = "DBSETUP_ROOT"

// ErrRootNotFound is returned when no directory holds config/database.yml.
var ErrRootNotFound = errors.New("project root not found")

// FindRoot locates the project root: DBSETUP_ROOT when set, otherwise the
// nearest directory at or above start that contains config/database.yml.
func FindRoot(start string) (string, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		if !isRoot(root) {
			return "", fmt.Errorf("%w: %s=%s has no %s", ErrRootNotFound, EnvRoot, root, DatabaseFile)
		}
		return filepath.Abs(root)
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		if isRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s at or above %s", ErrRootNotFound, DatabaseFile, start)
		}
		dir = parent
	}
}

func isRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, DatabaseFile))
	return err == nil && !info.IsDir()
}
