package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/dbsetup/internal/backend"
	"github.com/phrazzld/dbsetup/internal/ciutil"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
	"github.com/phrazzld/dbsetup/internal/migrate"
	"github.com/phrazzld/dbsetup/internal/schema"
)

// Result describes a completed run.
type Result struct {
	CorrelationID string
	Descriptor    config.Descriptor
	Status        backend.Status
	SchemaFile    string
	Applied       []migrate.Record
	Duration      time.Duration
}

// Provisioner runs reset, schema load and migration for named environments
// of one project.
type Provisioner struct {
	cfg         *config.Config
	logger      *slog.Logger
	connector   conn.Connector
	credentials backend.CredentialProvider
	getenv      func(string) string
	silence     bool
}

// New returns a provisioner for cfg.
func New(cfg *config.Config, opts ...Option) *Provisioner {
	p := &Provisioner{
		cfg:         cfg,
		logger:      slog.Default(),
		connector:   conn.SQLConnector{},
		getenv:      os.Getenv,
		silence:     true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.credentials == nil {
		p.credentials = p.credentialsFor(cfg.AdminCredentials)
	}
	return p
}

// credentialsFor maps the admin_credentials setting to a provider. A prompt
// cannot be answered under CI, so there it degrades to environment variables.
func (p *Provisioner) credentialsFor(source string) backend.CredentialProvider {
	switch source {
	case "env":
		return backend.EnvCredentials{Getenv: p.getenv}
	case "prompt":
		if provider := ciutil.Provider(p.getenv); provider != "" {
			p.logger.Warn("admin credential prompt unavailable under CI, reading environment instead",
				"ci_provider", provider,
				"user_var", backend.EnvAdminUser,
				"password_var", backend.EnvAdminPassword)
			return backend.EnvCredentials{Getenv: p.getenv}
		}
		return backend.Prompt{In: os.Stdin, Out: os.Stderr}
	default:
		return backend.NoCredentials{}
	}
}

// Setup provisions env. Any failure leaves the environment unusable.
func (p *Provisioner) Setup(ctx context.Context, env string) error {
	_, err := p.SetupWithResult(ctx, env)
	return err
}

// SetupWithResult provisions env and reports what it did.
func (p *Provisioner) SetupWithResult(ctx context.Context, env string) (*Result, error) {
	if p.silence {
		restore, err := silenceStdout()
		if err != nil {
			return nil, err
		}
		defer restore()
	}

	start := time.Now()
	res := &Result{CorrelationID: uuid.New().String()}
	logger := p.logger.With(
		"component", "provision",
		"correlation_id", res.CorrelationID,
		"environment", env,
	)

	// Validated up front so an unknown format never touches the database.
	format, err := schema.ParseFormat(p.cfg.SchemaFormat)
	if err != nil {
		return nil, err
	}

	d, err := config.NewResolverWithEnv(p.cfg, p.getenv).Resolve(env)
	if err != nil {
		return nil, err
	}
	res.Descriptor = d
	logger = logger.With("adapter", d.Kind.String(), "database", d.Database)
	logger.Info("provisioning started", "descriptor", d)

	handle := conn.NewHandle(p.connector, logger)
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Warn("failed to close connection", "error", err)
		}
	}()

	strategy, err := backend.ForDescriptor(d, backend.Deps{
		Handle:      handle,
		Credentials: p.credentials,
		Getenv:      p.getenv,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	res.Status, err = backend.Reset(ctx, strategy, d)
	if err != nil {
		return nil, err
	}

	session, err := handle.Establish(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.Database, err)
	}

	res.SchemaFile, err = schema.NewLoader(p.cfg.Root, logger).Load(ctx, session, d.Kind, format, env)
	if err != nil {
		return nil, err
	}

	db, err := handle.DB()
	if err != nil {
		return nil, err
	}

	dirs := migrate.Directories(p.cfg.Root, p.cfg.MigrationsPaths)
	res.Applied, err = migrate.NewRunner(p.cfg.MigrationTable, logger).Migrate(ctx, db, d.Kind, dirs)
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	logger.Info("provisioning complete",
		"status", res.Status.String(),
		"schema_file", res.SchemaFile,
		"migrations_applied", len(res.Applied),
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// Setup loads the project configuration found at or above the working
// directory and provisions env.
func Setup(ctx context.Context, env string, opts ...Option) error {
	root, err := config.FindRoot(".")
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	return New(cfg, opts...).Setup(ctx, env)
}
