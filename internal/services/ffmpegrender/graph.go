package ffmpegrender

import (
	"fmt"
	"math"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortreel/internal/render"
)

const (
	// musicFadeSeconds is the fade-out applied to the background track.
	musicFadeSeconds = 1.5
	// kenBurnsZoom is the final zoom of a still image, reached on its last frame.
	kenBurnsZoom = 1.2
)

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// buildArgs returns the ffmpeg argument list for comp. musicPath is ignored
// when the composition mutes music.
func buildArgs(comp render.Composition, opts Options, assPath, musicPath, outPath string) []string {
	width, height := comp.Style.Width, comp.Style.Height
	fps := strconv.Itoa(opts.FrameRate)

	videos := make([]*ffmpeg.Stream, 0, len(comp.Clips))
	narration := make([]*ffmpeg.Stream, 0, len(comp.Clips))
	for _, clip := range comp.Clips {
		dur := seconds(clip.DurationSeconds)
		var v *ffmpeg.Stream
		if clip.Footage.Still {
			v = kenBurns(cover(ffmpeg.Input(clip.Footage.URL).Video(), width, height), width, height, opts.FrameRate, clip.DurationSeconds)
		} else {
			v = cover(ffmpeg.Input(clip.Footage.URL, ffmpeg.KwArgs{"t": dur}).Video(), width, height).
				Filter("fps", ffmpeg.Args{fps})
		}
		v = v.Filter("setsar", ffmpeg.Args{"1"}).
			Filter("tpad", nil, ffmpeg.KwArgs{"stop_mode": "clone", "stop_duration": dur}).
			Filter("trim", nil, ffmpeg.KwArgs{"duration": dur}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})
		videos = append(videos, v)

		a := ffmpeg.Input(clip.AudioRef).Audio().
			Filter("aformat", nil, ffmpeg.KwArgs{"sample_rates": 48000, "channel_layouts": "stereo"}).
			Filter("apad", nil).
			Filter("atrim", nil, ffmpeg.KwArgs{"duration": dur}).
			Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})
		narration = append(narration, a)
	}

	video := ffmpeg.Concat(videos)
	if len(comp.Captions) > 0 && assPath != "" {
		video = video.Filter("ass", ffmpeg.Args{assPath})
	}
	audio := ffmpeg.Concat(narration, ffmpeg.KwArgs{"v": 0, "a": 1})

	total := comp.DurationSeconds
	if comp.Style.MusicGain > 0 && musicPath != "" {
		music := ffmpeg.Input(musicPath, ffmpeg.KwArgs{"ss": seconds(comp.Music.StartSec), "stream_loop": -1}).Audio().
			Filter("aformat", nil, ffmpeg.KwArgs{"sample_rates": 48000, "channel_layouts": "stereo"}).
			Filter("atrim", nil, ffmpeg.KwArgs{"duration": seconds(total)}).
			Filter("volume", ffmpeg.Args{strconv.FormatFloat(comp.Style.MusicGain, 'f', 2, 64)}).
			Filter("afade", nil, ffmpeg.KwArgs{"t": "out", "st": seconds(max(total-musicFadeSeconds, 0)), "d": seconds(musicFadeSeconds)})
		audio = ffmpeg.Filter([]*ffmpeg.Stream{audio, music}, "amix", nil,
			ffmpeg.KwArgs{"inputs": 2, "duration": "first", "normalize": 0})
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outPath, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   opts.Preset,
		"crf":      opts.CRF,
		"pix_fmt":  "yuv420p",
		"r":        fps,
		"c:a":      "aac",
		"b:a":      "192k",
		"t":        seconds(total),
		"movflags": "+faststart",
		"loglevel": "error",
	}).OverWriteOutput().GetArgs()
}

// cover scales s to fill width x height and crops the overflow.
func cover(s *ffmpeg.Stream, width, height int) *ffmpeg.Stream {
	return s.
		Filter("scale", ffmpeg.Args{strconv.Itoa(width), strconv.Itoa(height)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
		Filter("crop", ffmpeg.Args{strconv.Itoa(width), strconv.Itoa(height)})
}

// kenBurns turns a single image frame into a clip that zooms from 1 to
// kenBurnsZoom around the center over its duration.
func kenBurns(s *ffmpeg.Stream, width, height, frameRate int, durationSeconds float64) *ffmpeg.Stream {
	frames := max(1, int(math.Ceil(durationSeconds*float64(frameRate))))
	return s.Filter("zoompan", nil, ffmpeg.KwArgs{
		"z":   fmt.Sprintf("1+%.3f*on/%d", kenBurnsZoom-1, frames),
		"x":   "iw/2-(iw/zoom/2)",
		"y":   "ih/2-(ih/zoom/2)",
		"d":   frames,
		"s":   fmt.Sprintf("%dx%d", width, height),
		"fps": frameRate,
	})
}
