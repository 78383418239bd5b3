// Package api defines the wire-format types of the daemon's HTTP API and a
// client for it.
//
// # Key Types
//
// SubmitResponse, StatusResponse and VideoListResponse answer the short-video
// endpoints. DaemonStatus aggregates queue state, dependency availability and
// staging usage for /api/status.
//
// # Client
//
// Client wraps net/http with bearer authentication and typed decoding. The CLI
// uses it for every command that talks to a running daemon.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Job
// statuses are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds.
package api
