// Package ffprobe provides a typed wrapper around ffprobe JSON output and the
// checks applied to rendered shorts before they are stored.
package ffprobe
