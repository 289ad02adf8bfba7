package schema

import "errors"

var (
	// ErrSchemaFileMissing means neither the environment-specific nor the
	// shared schema file exists.
	ErrSchemaFileMissing = errors.New("schema file missing")

	// ErrUnknownSchemaFormat means the configured format is neither script nor sql.
	ErrUnknownSchemaFormat = errors.New("unknown schema format")

	// ErrInvalidScript means a structural script failed to parse or validate.
	ErrInvalidScript = errors.New("invalid schema script")
)
