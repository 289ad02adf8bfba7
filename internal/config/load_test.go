package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDatabaseYAML = `
test:
  adapter: sqlite3
  database: db/test.db
pg:
  adapter: postgresql
  database: app_test
  host: localhost
  port: 5432
  username: app
  password: secret
  encoding: unicode
`

// writeProject creates a project root with the given config files and returns its path.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// TestLoadDefaults verifies that Load fills in defaults when only database.yml exists.
func TestLoadDefaults(t *testing.T) {
	root := writeProject(t, map[string]string{DatabaseFile: testDatabaseYAML})

	cfg, err := Load(root)

	require.NoError(t, err, "Load() should succeed with only database.yml present")
	require.NotNil(t, cfg)
	assert.Equal(t, "script", cfg.SchemaFormat)
	assert.Equal(t, []string{"db/migrate"}, cfg.MigrationsPaths)
	assert.Equal(t, DefaultMigrationTable, cfg.MigrationTable)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "none", cfg.AdminCredentials)
	assert.Len(t, cfg.Databases, 2)
	assert.Equal(t, 5432, cfg.Databases["pg"].Port)
}

// TestLoadFromSettingsFile verifies that config/dbsetup.yml overrides defaults.
func TestLoadFromSettingsFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		DatabaseFile: testDatabaseYAML,
		"config/dbsetup.yml": `
schema_format: sql
migrations_paths: [engine/db/migrate, db/migrate]
log_level: debug
admin_credentials: env
`,
	})

	cfg, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.SchemaFormat)
	assert.Equal(t, []string{"engine/db/migrate", "db/migrate"}, cfg.MigrationsPaths)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "env", cfg.AdminCredentials)
}

// TestLoadFromEnv verifies that DBSETUP_ variables take precedence over the settings file.
func TestLoadFromEnv(t *testing.T) {
	root := writeProject(t, map[string]string{
		DatabaseFile:         testDatabaseYAML,
		"config/dbsetup.yml": "schema_format: script\n",
	})
	t.Setenv("DBSETUP_SCHEMA_FORMAT", "sql")
	t.Setenv("DBSETUP_LOG_LEVEL", "warn")

	cfg, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.SchemaFormat)
	assert.Equal(t, "warn", cfg.LogLevel)
}

// TestLoadValidationErrors verifies that invalid settings are rejected.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name           string
		files          map[string]string
		errorSubstring string
	}{
		{
			name:           "Missing database.yml",
			files:          map[string]string{},
			errorSubstring: "database configuration file",
		},
		{
			name: "Invalid log level",
			files: map[string]string{
				DatabaseFile:         testDatabaseYAML,
				"config/dbsetup.yml": "log_level: loud\n",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid credential source",
			files: map[string]string{
				DatabaseFile:         testDatabaseYAML,
				"config/dbsetup.yml": "admin_credentials: ask-nicely\n",
			},
			errorSubstring: "validation failed",
		},
		{
			name: "Port out of range",
			files: map[string]string{
				DatabaseFile: "test:\n  adapter: mysql\n  port: 999999\n",
			},
			errorSubstring: "validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeProject(t, tc.files)

			cfg, err := Load(root)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorSubstring)
			assert.Nil(t, cfg)
		})
	}
}
