package migrate

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	annotationPrefix = "-- +goose"
	annotationUp     = "Up"
	annotationDown   = "Down"
	annotationBegin  = "StatementBegin"
	annotationEnd    = "StatementEnd"
)

// parseUp returns the statements of a goose-annotated migration's Up section.
// Plain statements end at a line ending in ";" and lose the terminator;
// StatementBegin/StatementEnd blocks are kept whole.
func parseUp(r io.Reader) ([]string, error) {
	var (
		statements []string
		buf        strings.Builder
		sawUp      bool
		inUp       bool
		inBlock    bool
	)

	flush := func(trimTerminator bool) {
		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		if trimTerminator {
			stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
		}
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, annotationPrefix) {
			fields := strings.Fields(strings.TrimPrefix(trimmed, annotationPrefix))
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case annotationUp:
				sawUp, inUp = true, true
			case annotationDown:
				if inBlock {
					return nil, fmt.Errorf("%w: Down annotation inside a statement block", ErrInvalidMigration)
				}
				flush(true)
				inUp = false
			case annotationBegin:
				if inUp {
					flush(true)
					inBlock = true
				}
			case annotationEnd:
				if inUp {
					flush(false)
					inBlock = false
				}
			}
			continue
		}

		if !inUp {
			continue
		}
		if !inBlock && (trimmed == "" || strings.HasPrefix(trimmed, "--")) && buf.Len() == 0 {
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if !inBlock && strings.HasSuffix(trimmed, ";") {
			flush(true)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !sawUp {
		return nil, fmt.Errorf("%w: missing '%s %s' annotation", ErrInvalidMigration, annotationPrefix, annotationUp)
	}
	if inBlock {
		return nil, fmt.Errorf("%w: unterminated %s", ErrInvalidMigration, annotationBegin)
	}
	flush(true)

	return statements, nil
}
