package provision

import (
	"log/slog"

	"github.com/phrazzld/dbsetup/internal/backend"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithConnector replaces the database/sql connector, mainly for tests.
func WithConnector(c conn.Connector) Option {
	return func(p *Provisioner) {
		p.connector = c
	}
}

// WithCredentials sets the provider consulted when creation is denied.
func WithCredentials(c backend.CredentialProvider) Option {
	return func(p *Provisioner) {
		p.credentials = c
	}
}

// WithGetenv replaces the environment lookup used for CHARSET, COLLATION and
// ${VAR} expansion.
func WithGetenv(getenv func(string) string) Option {
	return func(p *Provisioner) {
		p.getenv = getenv
	}
}

// WithoutSilence leaves stdout untouched during the run.
func WithoutSilence() Option {
	return func(p *Provisioner) {
		p.silence = false
	}
}
