// Package backend drops and recreates test databases. Each adapter family has
// its own Strategy; server backends share a creation flow that escalates to
// administrative credentials exactly once when the configured user is denied.
package backend
