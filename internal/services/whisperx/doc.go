// Package whisperx turns synthesized narration into word-timed caption tokens
// by running WhisperX through uvx.
//
// Audio is first normalized to 16kHz mono PCM with ffmpeg, then transcribed
// with JSON output. Word timings are converted to milliseconds and merged so
// every caption token is one displayable word.
package whisperx
