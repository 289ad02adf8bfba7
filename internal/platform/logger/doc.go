// Package logger configures structured JSON logging for provisioning runs.
//
// Logs go to the error stream so they survive the stdout suppression that
// wraps every run, and pass through a handler that masks credentials.
package logger
