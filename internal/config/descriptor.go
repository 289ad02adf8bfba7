package config

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/phrazzld/dbsetup/internal/adapter"
)

// Descriptor is a fully resolved connection description for one run.
// It is a value type: the With* helpers return modified copies, so a resolved
// descriptor never changes once handed to the provisioner.
type Descriptor struct {
	Environment      string
	Kind             adapter.Kind
	AdapterName      string
	Database         string
	Host             string
	Port             int
	Username         string
	Password         string
	Charset          string
	Collation        string
	Encoding         string
	SchemaSearchPath string
	Options          map[string]string
}

// WithDatabase returns a copy of d targeting another database, e.g. a
// maintenance database used for administrative statements.
func (d Descriptor) WithDatabase(name string) Descriptor {
	c := d.clone()
	c.Database = name
	return c
}

// WithCredentials returns a copy of d authenticating as another user.
func (d Descriptor) WithCredentials(username, password string) Descriptor {
	c := d.clone()
	c.Username = username
	c.Password = password
	return c
}

// WithOption returns a copy of d with a driver option set.
func (d Descriptor) WithOption(key, value string) Descriptor {
	c := d.clone()
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}

// Option returns a driver option value, or the empty string.
func (d Descriptor) Option(key string) string {
	return d.Options[key]
}

// LocalHost reports whether the server runs on this machine.
func (d Descriptor) LocalHost() bool {
	switch d.Host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func (d Descriptor) clone() Descriptor {
	c := d
	c.Options = maps.Clone(d.Options)
	return c
}

// String describes the descriptor without its password.
func (d Descriptor) String() string {
	return fmt.Sprintf("{adapter: %s, database: %s, host: %s, username: %s}",
		d.AdapterName, d.Database, d.Host, d.Username)
}

// LogValue implements slog.LogValuer so descriptors can be logged directly
// without leaking the password.
func (d Descriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("environment", d.Environment),
		slog.String("adapter", d.Kind.String()),
		slog.String("database", d.Database),
		slog.String("host", d.Host),
		slog.String("username", d.Username),
	)
}
