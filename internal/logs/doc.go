// Package logs reads the daemon's run logs for the CLI.
//
// Tail returns the last N lines or resumes from a byte offset, optionally
// waiting for new output and filtering to a single job. Offsets let callers
// poll a growing file without re-reading it.
package logs
