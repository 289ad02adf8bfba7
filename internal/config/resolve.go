package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/phrazzld/dbsetup/internal/adapter"
)

// Resolver turns environment names into Descriptors. Lookups are pure: the
// resolver never touches a database or the filesystem.
type Resolver struct {
	root      string
	databases map[string]DatabaseConfig
	getenv    func(string) string
}

// NewResolver returns a resolver over cfg's database table. Values of the form
// ${NAME} are expanded from the process environment.
func NewResolver(cfg *Config) *Resolver {
	return NewResolverWithEnv(cfg, os.Getenv)
}

// NewResolverWithEnv is NewResolver with an explicit environment lookup.
func NewResolverWithEnv(cfg *Config, getenv func(string) string) *Resolver {
	return &Resolver{
		root:      cfg.Root,
		databases: cfg.Databases,
		getenv:    getenv,
	}
}

// Environments lists the configured environment names in sorted order.
func (r *Resolver) Environments() []string {
	names := make([]string, 0, len(r.databases))
	for name := range r.databases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the descriptor for the named environment, or an error
// wrapping ErrConfigNotFound when the environment is not configured.
// An unrecognised adapter name is not an error here; it resolves to
// adapter.Unsupported and is rejected when a strategy is selected.
func (r *Resolver) Resolve(environment string) (Descriptor, error) {
	raw, ok := r.databases[strings.ToLower(environment)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: environment %q (configured: %s)",
			ErrConfigNotFound, environment, strings.Join(r.Environments(), ", "))
	}

	d := Descriptor{
		Environment:      environment,
		AdapterName:      r.expand(raw.Adapter),
		Database:         r.expand(raw.Database),
		Host:             r.expand(raw.Host),
		Port:             raw.Port,
		Username:         r.expand(raw.Username),
		Password:         r.expand(raw.Password),
		Charset:          r.expand(raw.Charset),
		Collation:        r.expand(raw.Collation),
		Encoding:         r.expand(raw.Encoding),
		SchemaSearchPath: r.expand(raw.SchemaSearchPath),
		Options:          make(map[string]string, len(raw.Options)),
	}
	for k, v := range raw.Options {
		d.Options[k] = r.expand(v)
	}

	if rawURL := r.expand(raw.URL); rawURL != "" {
		if err := mergeURL(&d, rawURL); err != nil {
			return Descriptor{}, fmt.Errorf("environment %q: %w", environment, err)
		}
	}

	d.Kind = adapter.Parse(d.AdapterName)

	if d.Kind.FileBased() && d.Database != "" && d.Database != ":memory:" && !filepath.IsAbs(d.Database) {
		d.Database = filepath.Join(r.root, d.Database)
	}
	if d.Kind == adapter.Firebird && d.LocalHost() && isFirebirdFilePath(d.Database) {
		d.Database = filepath.Join(r.root, d.Database)
	}

	return d, nil
}

// isFirebirdFilePath reports whether name is a relative file path rather than
// a server-side alias: aliases carry neither a directory nor an extension.
func isFirebirdFilePath(name string) bool {
	if name == "" || filepath.IsAbs(name) {
		return false
	}
	return strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) ||
		filepath.Ext(name) != ""
}

func (r *Resolver) expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, r.getenv)
}

// mergeURL fills fields of d that were not set explicitly from a database URL.
// Explicit keys in database.yml win over the URL.
func mergeURL(d *Descriptor, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("%w: missing scheme", ErrInvalidURL)
	}

	if d.AdapterName == "" {
		d.AdapterName = u.Scheme
	}

	if adapter.Parse(u.Scheme).FileBased() {
		if d.Database == "" {
			// sqlite:relative.db is opaque; sqlite:///abs/path.db has a path.
			d.Database = u.Opaque
			if d.Database == "" {
				d.Database = u.Path
			}
		}
		return nil
	}

	if d.Host == "" {
		d.Host = u.Hostname()
	}
	if d.Port == 0 && u.Port() != "" {
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return fmt.Errorf("%w: port %q", ErrInvalidURL, u.Port())
		}
		d.Port = port
	}
	if u.User != nil {
		if d.Username == "" {
			d.Username = u.User.Username()
		}
		if pw, ok := u.User.Password(); ok && d.Password == "" {
			d.Password = pw
		}
	}
	if d.Database == "" {
		d.Database = strings.TrimPrefix(u.Path, "/")
	}
	for key, values := range u.Query() {
		if _, set := d.Options[key]; !set && len(values) > 0 {
			d.Options[key] = values[0]
		}
	}

	return nil
}
