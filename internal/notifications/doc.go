// Package notifications delivers job events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Individual events
// can be switched off with notifications.job_ready and
// notifications.job_failed. Callers depend only on the Service interface.
package notifications
