package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

const probeJSON = `{"streams":[
 {"index":0,"codec_type":"video","codec_name":"h264","width":1080,"height":1920,"avg_frame_rate":"25/1"},
 {"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"48000","channels":2}],
 "format":{"filename":"out.mp4","duration":"12.04","size":"1000","format_name":"mov,mp4"}}`

func TestInspectWithParsesOutput(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("expected default binary, got %q", binary)
		}
		gotArgs = args
		return []byte(probeJSON), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("InspectWith returned error: %v", err)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/out.mp4" {
		t.Fatalf("expected path last, got %v", gotArgs)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 1080 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if err := result.Check(Expectation{Width: 1080, Height: 1920, DurationSeconds: 12, Tolerance: 0.5}); err != nil {
		t.Fatalf("expected render to pass checks: %v", err)
	}
}

func TestInspectWithReportsFailures(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) { return nil, errors.New("exit status 1") }
	if _, err := InspectWith(context.Background(), run, "ffprobe", "x.mp4"); err == nil {
		t.Fatal("expected runner error")
	}
	if _, err := InspectWith(context.Background(), run, "ffprobe", " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCheck(t *testing.T) {
	base := Result{
		Streams: []Stream{{CodecType: "video", Width: 1920, Height: 1080}, {CodecType: "audio"}},
		Format:  Format{Duration: "30.0"},
	}
	want := Expectation{Width: 1920, Height: 1080, DurationSeconds: 30, Tolerance: 0.5}
	tests := []struct {
		name   string
		mutate func(*Result)
		want   string
	}{
		{"wrong size", func(r *Result) { r.Streams[0].Width = 1280 }, "frame size"},
		{"no audio", func(r *Result) { r.Streams = r.Streams[:1] }, "no audio"},
		{"no video", func(r *Result) { r.Streams = r.Streams[1:] }, "no video"},
		{"short", func(r *Result) { r.Format.Duration = "20" }, "duration"},
		{"bad duration", func(r *Result) { r.Format.Duration = "n/a" }, "invalid duration"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			r.Streams = append([]Stream(nil), base.Streams...)
			tc.mutate(&r)
			err := r.Check(want)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
