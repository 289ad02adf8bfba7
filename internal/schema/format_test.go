package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "db"), 0o755))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, "db", name), []byte("tables: []\n"), 0o600))
	}
	return root
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("SQL")
	require.NoError(t, err)
	assert.Equal(t, FormatSQL, f)

	_, err = ParseFormat("ruby")
	require.ErrorIs(t, err, ErrUnknownSchemaFormat)
	assert.Contains(t, err.Error(), "ruby")
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		format  Format
		want    string
		wantErr error
	}{
		{"script prefers environment file", []string{"schema.yml", "schema_test.yml"}, FormatScript, "schema_test.yml", nil},
		{"script falls back to default", []string{"schema.yml"}, FormatScript, "schema.yml", nil},
		{"script accepts yaml extension", []string{"schema.yaml"}, FormatScript, "schema.yaml", nil},
		{"script missing", nil, FormatScript, "", ErrSchemaFileMissing},
		{"sql prefers environment file", []string{"structure.sql", "structure_test.sql"}, FormatSQL, "structure_test.sql", nil},
		{"sql falls back to default", []string{"structure.sql"}, FormatSQL, "structure.sql", nil},
		{"sql ignores script files", []string{"schema.yml"}, FormatSQL, "", ErrSchemaFileMissing},
		{"unknown format", []string{"schema.yml"}, Format("xml"), "", ErrUnknownSchemaFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeFiles(t, tt.files...)

			got, err := Locate(root, tt.format, "test")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "db", tt.want), got)
		})
	}
}
