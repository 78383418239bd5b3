// Package main hosts the shortreel CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into HTTP calls against
// the daemon API, launches and stops the daemon process, and scaffolds
// configuration. Video rendering itself always happens inside the daemon; the
// CLI only submits work and fetches results.
package main
