// Command dbsetup rebuilds the database of a named environment from the
// project's schema and migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/phrazzld/dbsetup/internal/ciutil"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/platform/logger"
	"github.com/phrazzld/dbsetup/internal/provision"
	"github.com/phrazzld/dbsetup/internal/redact"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	env      string
	root     string
	admin    string
	logLevel string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("dbsetup", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.env, "env", "e", "test", "environment in config/database.yml to rebuild")
	fs.StringVar(&opts.root, "root", "", "project root (default: nearest directory with config/database.yml)")
	fs.StringVar(&opts.admin, "admin-credentials", "", "admin credential source when creation is refused: none, env or prompt")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		opts.env = fs.Arg(0)
	}

	switch opts.admin {
	case "", "none", "env", "prompt":
	default:
		return opts, fmt.Errorf("invalid --admin-credentials %q", opts.admin)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "dbsetup: %v\n", err)
		return 2
	}

	root := opts.root
	if root == "" {
		if root, err = config.FindRoot("."); err != nil {
			fmt.Fprintf(stderr, "dbsetup: %v\n", err)
			return 1
		}
	}

	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(stderr, "dbsetup: %s\n", redact.Error(err))
		return 1
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.admin != "" {
		cfg.AdminCredentials = opts.admin
	}

	log := logger.New(stderr, cfg.LogLevel, logger.WithCIProvider(ciutil.Provider(os.Getenv)))

	res, err := provision.New(cfg, provision.WithLogger(log)).SetupWithResult(ctx, opts.env)
	if err != nil {
		fmt.Fprintf(stderr, "dbsetup: %s\n", redact.Error(err))
		return 1
	}

	fmt.Fprintf(stdout, "%s: %s (%s), %d migration(s) applied in %s\n",
		opts.env, res.Status, res.Descriptor, len(res.Applied), res.Duration.Round(time.Millisecond))
	return 0
}
