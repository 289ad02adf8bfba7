// Package schema loads the initial schema into a freshly created database,
// either from a structural YAML script rendered per dialect or from a raw
// SQL dump executed as-is.
package schema
