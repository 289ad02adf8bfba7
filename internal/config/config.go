package config

// Config holds the provisioning settings and the named-environment database table.
// Settings come from config/dbsetup.yml and DBSETUP_ environment variables; the
// database table comes from config/database.yml.
type Config struct {
	// Root is the project root every relative path is resolved against.
	Root string `mapstructure:"-" validate:"required"`

	// SchemaFormat selects the schema representation loaded into a fresh database.
	// It is deliberately not restricted here: an unknown value is reported by the
	// schema loader before anything touches the database.
	SchemaFormat string `mapstructure:"schema_format" validate:"required"`

	// MigrationsPaths are migration directories relative to Root. The project's own
	// db/migrate directory is always appended by the provisioner.
	MigrationsPaths []string `mapstructure:"migrations_paths"`

	// MigrationTable is the table inside the target database that records applied versions.
	MigrationTable string `mapstructure:"migration_table" validate:"required"`

	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// AdminCredentials selects how administrative credentials are obtained when
	// database creation is refused for the configured user.
	AdminCredentials string `mapstructure:"admin_credentials" validate:"required,oneof=none env prompt"`

	Databases map[string]DatabaseConfig `mapstructure:"-" validate:"required,min=1,dive"`
}

// DatabaseConfig is one environment entry of config/database.yml.
type DatabaseConfig struct {
	Adapter          string            `mapstructure:"adapter"`
	URL              string            `mapstructure:"url"`
	Database         string            `mapstructure:"database"`
	Host             string            `mapstructure:"host"`
	Port             int               `mapstructure:"port" validate:"gte=0,lt=65536"`
	Username         string            `mapstructure:"username"`
	Password         string            `mapstructure:"password"`
	Charset          string            `mapstructure:"charset"`
	Collation        string            `mapstructure:"collation"`
	Encoding         string            `mapstructure:"encoding"`
	SchemaSearchPath string            `mapstructure:"schema_search_path"`
	Options          map[string]string `mapstructure:"options"`
}
