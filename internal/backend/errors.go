package backend

import (
	"errors"
	"fmt"

	"github.com/phrazzld/dbsetup/internal/conn"
)

var (
	// ErrUnsupportedAdapter is returned by For when no strategy handles the adapter.
	ErrUnsupportedAdapter = errors.New("unsupported adapter")

	// ErrCreationFailed is wrapped by every CreationError.
	ErrCreationFailed = errors.New("database creation failed")

	// ErrAccessDenied is wrapped by a CreationError whose cause was an
	// authentication or authorisation failure.
	ErrAccessDenied = conn.ErrAccessDenied

	// ErrNoAdminCredentials is returned by credential providers that cannot
	// supply administrative credentials.
	ErrNoAdminCredentials = errors.New("no administrative credentials available")
)

// CreationError reports a failed Create with the context needed to diagnose it.
type CreationError struct {
	Adapter      string
	Database     string
	Charset      string
	Collation    string
	AccessDenied bool
	Cause        error
}

func newCreationError(adapterName, database string, opts Options, cause error) *CreationError {
	return &CreationError{
		Adapter:      adapterName,
		Database:     database,
		Charset:      opts.Charset,
		Collation:    opts.Collation,
		AccessDenied: conn.IsAccessDenied(cause),
		Cause:        cause,
	}
}

func (e *CreationError) Error() string {
	msg := fmt.Sprintf("couldn't create %s database %q (charset: %s, collation: %s)",
		e.Adapter, e.Database, e.Charset, e.Collation)
	if e.AccessDenied {
		msg += ": access denied"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes ErrCreationFailed, ErrAccessDenied when applicable, and the cause.
func (e *CreationError) Unwrap() []error {
	errs := []error{ErrCreationFailed}
	if e.AccessDenied {
		errs = append(errs, ErrAccessDenied)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
