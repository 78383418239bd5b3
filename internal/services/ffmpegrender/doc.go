// Package ffmpegrender is the rendering engine: it turns a render.Composition
// into an ffmpeg filter graph, burns in ASS captions, mixes narration with the
// background track, validates the result with ffprobe and publishes it to
// artifact storage.
package ffmpegrender
