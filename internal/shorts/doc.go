// Package shorts defines the data model shared by every stage of the
// short-video pipeline: submitted scene requests, render configuration,
// caption tokens and pages, footage assets, and the assembled scenes handed
// to the renderer.
//
// Submissions are validated here so the queue can reject malformed requests
// synchronously before a job is created.
package shorts
