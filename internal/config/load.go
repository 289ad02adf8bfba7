package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable that overrides a setting.
	EnvPrefix = "DBSETUP"

	// DatabaseFile is the named-environment table, relative to the project root.
	DatabaseFile = "config/database.yml"

	// DefaultMigrationTable matches the table name goose is configured with.
	DefaultMigrationTable = "schema_migrations"
)

// Load reads configuration for the project rooted at root.
// config/database.yml is required; config/dbsetup.yml is optional. Environment
// variables (DBSETUP_SCHEMA_FORMAT, DBSETUP_LOG_LEVEL, ...) take precedence over
// values from the settings file.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}

	v := viper.New()

	v.SetDefault("schema_format", "script")
	v.SetDefault("migrations_paths", []string{"db/migrate"})
	v.SetDefault("migration_table", DefaultMigrationTable)
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_credentials", "none")

	v.SetConfigName("dbsetup")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(absRoot, "config"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	cfg.Root = absRoot

	databases, err := loadDatabases(filepath.Join(absRoot, DatabaseFile))
	if err != nil {
		return nil, err
	}
	cfg.Databases = databases

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDatabases reads the environment → database table. Environment names are
// case-insensitive because viper folds keys to lower case.
func loadDatabases(path string) (map[string]DatabaseConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database configuration file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	databases := make(map[string]DatabaseConfig)
	if err := v.Unmarshal(&databases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return databases, nil
}
