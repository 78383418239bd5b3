// Package queue runs submitted jobs one at a time, in submission order.
//
// The queue is held in memory: a restart drops queued and in-flight jobs, and
// only finished artifacts survive on storage. Job status is derived rather
// than stored. A job is "processing" while it is queued, "ready" once its
// artifact exists, and "failed" otherwise.
//
// A single worker goroutine drains the queue. The idle/draining state and the
// job slice share one mutex, so concurrent submissions can never start a
// second worker.
package queue
