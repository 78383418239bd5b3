// Package daemon coordinates the long-running shortreel process.
//
// It fronts the job queue and artifact storage with the HTTP API, runs the
// cron-scheduled staging janitor, and holds a flock-based lock so only one
// daemon serves a configuration at a time. Pipeline wiring lives in
// daemonrun; this package focuses on startup, shutdown and the API surface.
package daemon
