// Package workflow runs one queued job end to end.
//
// Pipeline implements queue.Processor: it gives the job a private staging
// directory, expands long scenes, synthesizes narration, captions and footage
// scene by scene, picks a music track, builds the composition and hands it to
// the render dispatcher. Steps run strictly in order; the first failure ends
// the job. Ready and failed jobs are announced through the notifications
// service, and the staging directory is removed whichever way the job ends.
//
// The daemon's staging janitor asks the pipeline which directories are in use
// so a long-running job is never swept.
package workflow
