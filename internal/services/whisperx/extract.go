package whisperx

import (
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// buildNormalizeArgs returns ffmpeg arguments converting source into a mono
// 16kHz PCM WAV suitable for WhisperX.
func buildNormalizeArgs(source, dest string) []string {
	return ffmpeg.Input(source).
		Output(dest, ffmpeg.KwArgs{
			"vn":       "",
			"ac":       1,
			"ar":       SampleRate,
			"c:a":      "pcm_s16le",
			"loglevel": "error",
		}).
		OverWriteOutput().
		GetArgs()
}
