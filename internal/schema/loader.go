package schema

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phrazzld/dbsetup/internal/adapter"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// dumpSeparator splits raw dumps for drivers that execute one statement per call.
const dumpSeparator = ";\n\n"

// Loader applies schema files found under a project root.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader returns a loader reading from root/db.
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger.With("component", "schema")}
}

// Load applies the schema for format to s and returns the file it used. hint
// selects an environment-specific file when one exists. An unknown format
// fails before any file is read or statement executed.
func (l *Loader) Load(ctx context.Context, s conn.Session, kind adapter.Kind, format Format, hint string) (string, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return "", err
	}

	path, err := Locate(l.root, format, hint)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var statements []string

	switch format {
	case FormatScript:
		statements, err = l.renderScript(path, kind)
	case FormatSQL:
		statements, err = l.readDump(path, kind)
	}
	if err != nil {
		return "", err
	}

	for i, stmt := range statements {
		if _, err := s.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("failed to load schema from %s (statement %d): %w", path, i+1, err)
		}
	}

	l.logger.Info("schema loaded",
		"path", path,
		"format", string(format),
		"statements", len(statements),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}

func (l *Loader) renderScript(path string, kind adapter.Kind) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema script: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	script, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Render(script, kind)
}

// readDump returns the dump as a single statement, or split on blank-line
// separated terminators for Oracle and Firebird.
func (l *Loader) readDump(path string, kind adapter.Kind) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema dump: %w", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	switch kind {
	case adapter.Oracle, adapter.Firebird:
		return SplitDump(text), nil
	default:
		return []string{text}, nil
	}
}

// SplitDump splits a dump on ";\n\n", dropping blank pieces.
func SplitDump(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, piece := range strings.Split(text, dumpSeparator) {
		piece = strings.TrimSpace(piece)
		piece = strings.TrimSuffix(piece, ";")
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
