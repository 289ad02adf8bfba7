package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format selects how the schema is described.
type Format string

const (
	// FormatScript is a structural YAML script rendered per dialect.
	FormatScript Format = "script"
	// FormatSQL is a raw SQL dump.
	FormatSQL Format = "sql"
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatScript, FormatSQL:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSchemaFormat, s)
	}
}

// candidates lists the files tried for format, most specific first.
func (f Format) candidates(hint string) []string {
	var base string
	var exts []string
	switch f {
	case FormatScript:
		base, exts = "schema", []string{".yml", ".yaml"}
	case FormatSQL:
		base, exts = "structure", []string{".sql"}
	default:
		return nil
	}

	var names []string
	if hint != "" {
		for _, ext := range exts {
			names = append(names, base+"_"+hint+ext)
		}
	}
	for _, ext := range exts {
		names = append(names, base+ext)
	}
	return names
}

// Locate returns the schema file for format under root/db: the one specific to
// hint when present, else the shared one.
func Locate(root string, format Format, hint string) (string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}

	dir := filepath.Join(root, "db")
	names := format.candidates(hint)
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to check schema file %s: %w", path, err)
		}
	}

	return "", fmt.Errorf("%w: looked for %s in %s", ErrSchemaFileMissing, strings.Join(names, ", "), dir)
}
