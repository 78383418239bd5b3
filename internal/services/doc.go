// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations beneath them.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, scene indexes, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, timeout, render, cleanup, ...) so retry policy and log
//     fields stay uniform across the pipeline.
//
// Integrations with external tools and APIs live in the sub-packages.
package services
