package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultDirectory is the migration directory every project contributes.
const DefaultDirectory = "db/migrate"

// Migration is one migration file.
type Migration struct {
	Version int64
	Name    string
	Path    string
}

// Filename is the base name of the migration file.
func (m Migration) Filename() string {
	return filepath.Base(m.Path)
}

// Directories returns configured plus root/db/migrate, made absolute against
// root and de-duplicated, in first-seen order.
func Directories(root string, configured []string) []string {
	candidates := append(append([]string(nil), configured...), DefaultDirectory)

	seen := make(map[string]bool, len(candidates))
	dirs := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// Collect gathers *.sql migrations named <version>_<name>.sql from dirs,
// sorted by version. Missing and repeated directories are skipped.
func Collect(dirs []string) ([]Migration, error) {
	byVersion := make(map[int64]Migration)
	visited := make(map[string]bool, len(dirs))

	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if visited[dir] {
			continue
		}
		visited[dir] = true

		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
				continue
			}

			m, err := parseFilename(dir, entry.Name())
			if err != nil {
				return nil, err
			}

			if prev, ok := byVersion[m.Version]; ok {
				return nil, fmt.Errorf("%w: %d in %s and %s", ErrDuplicateVersion, m.Version, prev.Path, m.Path)
			}
			byVersion[m.Version] = m
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func parseFilename(dir, name string) (Migration, error) {
	base := strings.TrimSuffix(name, ".sql")
	prefix, rest, ok := strings.Cut(base, "_")
	if !ok {
		return Migration{}, fmt.Errorf("%w: %s: expected <version>_<name>.sql", ErrInvalidMigration, name)
	}

	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || version < 1 {
		return Migration{}, fmt.Errorf("%w: %s: version must be a positive integer", ErrInvalidMigration, name)
	}

	return Migration{Version: version, Name: rest, Path: filepath.Join(dir, name)}, nil
}
