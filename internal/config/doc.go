// Package config loads provisioning settings and the named-environment database
// table, and resolves an environment name into an immutable connection Descriptor.
// Loading uses viper (files plus DBSETUP_-prefixed environment variables) and
// validates the result with go-playground/validator.
package config
