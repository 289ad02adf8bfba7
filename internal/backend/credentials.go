package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/phrazzld/dbsetup/internal/adapter"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/redact"
)

// Environment variables read by EnvCredentials.
const (
	EnvAdminUser     = "DBSETUP_ADMIN_USER"
	EnvAdminPassword = "DBSETUP_ADMIN_PASSWORD"
)

// Credentials authenticate an administrative connection.
type Credentials struct {
	Username string
	Password string
}

// CredentialProvider supplies administrative credentials when the configured
// user is denied during creation. cause is the access-denied error.
type CredentialProvider interface {
	AdminCredentials(ctx context.Context, d config.Descriptor, cause error) (Credentials, error)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context, d config.Descriptor, cause error) (Credentials, error)

// AdminCredentials calls f.
func (f CredentialFunc) AdminCredentials(ctx context.Context, d config.Descriptor, cause error) (Credentials, error) {
	return f(ctx, d, cause)
}

// NoCredentials never supplies credentials. It is the default for
// non-interactive runs, where escalation fails immediately.
type NoCredentials struct{}

// AdminCredentials always returns ErrNoAdminCredentials.
func (NoCredentials) AdminCredentials(context.Context, config.Descriptor, error) (Credentials, error) {
	return Credentials{}, ErrNoAdminCredentials
}

// EnvCredentials reads administrative credentials from DBSETUP_ADMIN_USER and
// DBSETUP_ADMIN_PASSWORD. The user defaults to the adapter's conventional
// superuser when only the password is set.
type EnvCredentials struct {
	Getenv func(string) string
}

// AdminCredentials implements CredentialProvider.
func (e EnvCredentials) AdminCredentials(_ context.Context, d config.Descriptor, _ error) (Credentials, error) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	user := getenv(EnvAdminUser)
	password := getenv(EnvAdminPassword)
	if user == "" && password == "" {
		return Credentials{}, fmt.Errorf("%w: %s and %s are unset",
			ErrNoAdminCredentials, EnvAdminUser, EnvAdminPassword)
	}
	if user == "" {
		user = DefaultAdminUser(d.Kind)
	}
	return Credentials{Username: user, Password: password}, nil
}

// Prompt asks an operator for the administrator password. It blocks on input
// with no timeout, so automated runs must not reach it.
type Prompt struct {
	In       io.Reader
	Out      io.Writer
	Username string
}

// AdminCredentials writes the cause and a request to Out, then reads one line
// from In. Input is hidden when In is a terminal.
func (p Prompt) AdminCredentials(_ context.Context, d config.Descriptor, cause error) (Credentials, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	user := p.Username
	if user == "" {
		user = DefaultAdminUser(d.Kind)
	}

	if cause != nil {
		fmt.Fprintf(out, "%s.\n", redact.Secrets(cause.Error(), d.Password))
	}
	fmt.Fprintf(out, "Please provide the %s password for your %s installation\n> ", user, d.Kind)

	password, err := readSecret(in)
	fmt.Fprintln(out)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: reading password: %v", ErrNoAdminCredentials, err)
	}
	return Credentials{Username: user, Password: password}, nil
}

func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// DefaultAdminUser is the conventional superuser for an adapter.
func DefaultAdminUser(kind adapter.Kind) string {
	switch kind {
	case adapter.MySQL:
		return "root"
	case adapter.PostgreSQL:
		return "postgres"
	case adapter.SQLServer:
		return "sa"
	case adapter.Oracle:
		return "system"
	case adapter.Firebird:
		return "SYSDBA"
	default:
		return ""
	}
}
