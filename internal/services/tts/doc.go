// Package tts synthesizes narration through an OpenAI-compatible speech
// endpoint, typically a local Kokoro server.
//
// Responses are requested as WAV so the clip duration can be read from the
// RIFF header without decoding samples.
package tts
