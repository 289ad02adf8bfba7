// Package ciutil detects non-interactive CI environments, where provisioning
// must never block on a terminal prompt.
package ciutil
