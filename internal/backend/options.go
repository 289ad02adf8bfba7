package backend

import (
	"github.com/phrazzld/dbsetup/internal/config"
)

// Creation option defaults and the environment variables that override them.
const (
	DefaultCharset   = "utf8"
	DefaultCollation = "utf8_unicode_ci"
	DefaultEncoding  = "utf8"

	EnvCharset   = "CHARSET"
	EnvCollation = "COLLATION"
)

// Options are the resolved creation options for one database.
type Options struct {
	Charset   string
	Collation string
	Encoding  string
}

// ResolveOptions applies the precedence chain: descriptor value, then
// environment variable, then default. Encoding falls back to CHARSET.
func ResolveOptions(d config.Descriptor, getenv func(string) string) Options {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	return Options{
		Charset:   firstNonEmpty(d.Charset, getenv(EnvCharset), DefaultCharset),
		Collation: firstNonEmpty(d.Collation, getenv(EnvCollation), DefaultCollation),
		Encoding:  firstNonEmpty(d.Encoding, getenv(EnvCharset), DefaultEncoding),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
