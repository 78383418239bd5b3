// Package preflight provides readiness checks for the external services and
// filesystem paths shortreel depends on.
//
// The daemon runs the filesystem checks at startup and refuses to start when
// a directory is unusable. The CLI "shortreel status" command runs the full
// set, including Pexels and the speech endpoint, to display service health.
package preflight
