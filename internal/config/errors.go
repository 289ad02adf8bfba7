package config

import "errors"

var (
	// ErrConfigNotFound is returned when a named environment is absent from the
	// database configuration table.
	ErrConfigNotFound = errors.New("database configuration not found")

	// ErrInvalidURL is returned when an environment's url value cannot be parsed.
	ErrInvalidURL = errors.New("invalid database url")
)
