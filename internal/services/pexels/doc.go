// Package pexels searches the Pexels video API for stock footage.
//
// The client translates HTTP outcomes into the services error markers the
// footage matcher acts on: timeouts and 5xx responses are transient, rejected
// credentials are a configuration error, and anything else is reported as an
// external tool failure so the matcher moves on to the next term.
package pexels
