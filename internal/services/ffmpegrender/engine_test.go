package ffmpegrender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/logging"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/render"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

type fakePublisher struct {
	ids     []string
	content string
	err     error
}

func (f *fakePublisher) Put(_ context.Context, id, localPath string) error {
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.ids = append(f.ids, id)
	f.content = string(data)
	return nil
}

func testComposition(gain float64) render.Composition {
	return render.Composition{
		Clips: []render.Clip{
			{Footage: shorts.FootageAsset{ID: "1", URL: "https://videos.example/1.mp4"}, AudioRef: "/staging/scene-001.wav", DurationSeconds: 4},
			{Footage: shorts.FootageAsset{ID: "image-2", URL: "/uploads/cat.png", Still: true}, AudioRef: "/staging/scene-002.wav", StartSeconds: 4, DurationSeconds: 6},
		},
		Captions:        []shorts.CaptionPage{{StartMs: 0, EndMs: 500, Lines: []shorts.CaptionLine{{Tokens: []shorts.CaptionToken{{Text: " hi", StartMs: 0, EndMs: 500}}}}}},
		Music:           shorts.MusicTrack{File: "calm.mp3", StartSec: 12, EndSec: 90, Mood: shorts.Mood("chill")},
		DurationSeconds: 10,
		Style:           render.Style{Width: 1080, Height: 1920, CaptionPosition: shorts.CaptionBottom, MusicGain: gain},
	}
}

func probeOK(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video", Width: 1080, Height: 1920}, {CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "10.02"},
	}, nil
}

func newTestEngine(t *testing.T, publisher Publisher) (*Engine, *[]string) {
	t.Helper()
	opts := Options{FFmpegBinary: "ffmpeg", FrameRate: 25, Preset: "veryfast", CRF: 23, FontName: "Barlow", MusicDir: "/music", WorkDir: t.TempDir(), DurationTolerance: 0.5}
	engine := New(opts, publisher, logging.NewNop())
	var captured []string
	engine.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		captured = args
		ass, err := os.ReadFile(filepath.Join(filepath.Dir(args[len(args)-1]), "captions.ass"))
		if err != nil || !strings.Contains(string(ass), "Dialogue:") {
			t.Fatalf("expected captions written before ffmpeg runs: %v", err)
		}
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	})
	engine.WithProber(probeOK)
	return engine, &captured
}

func TestRenderBuildsGraphAndPublishes(t *testing.T) {
	publisher := &fakePublisher{}
	engine, captured := newTestEngine(t, publisher)

	if err := engine.Render(context.Background(), testComposition(0.45), "job-1"); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(publisher.ids) != 1 || publisher.ids[0] != "job-1" || publisher.content != "mp4" {
		t.Fatalf("unexpected publish %+v", publisher)
	}
	joined := strings.Join(*captured, " ")
	for _, want := range []string{
		"https://videos.example/1.mp4",
		"/uploads/cat.png",
		"/music/calm.mp3",
		"-stream_loop -1",
		"concat",
		"amix",
		"volume=0.45",
		"ass=",
		"crop=1080:1920",
		"-crf 23",
		"-y",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in ffmpeg args: %s", want, joined)
		}
	}
	if !strings.HasSuffix((*captured)[len(*captured)-1], "job-1.mp4") {
		t.Fatalf("expected output path last, got %v", *captured)
	}
}

func TestRenderZoomsStillImages(t *testing.T) {
	engine, captured := newTestEngine(t, &fakePublisher{})
	if err := engine.Render(context.Background(), testComposition(0.45), "job-3"); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	joined := strings.Join(*captured, " ")
	if strings.Count(joined, "zoompan=") != 1 {
		t.Fatalf("expected zoompan on the still clip only: %s", joined)
	}
	// 6s at 25fps.
	for _, want := range []string{"d=150", "z=1+0.200*on/150", "s=1080x1920", "x=iw/2-(iw/zoom/2)", "y=ih/2-(ih/zoom/2)"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in zoompan args: %s", want, joined)
		}
	}
	if strings.Contains(joined, "-loop") {
		t.Fatalf("still images must feed zoompan a single frame: %s", joined)
	}
}

func TestRenderMutedMusicSkipsMix(t *testing.T) {
	engine, captured := newTestEngine(t, &fakePublisher{})
	if err := engine.Render(context.Background(), testComposition(0), "job-2"); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	joined := strings.Join(*captured, " ")
	if strings.Contains(joined, "amix") || strings.Contains(joined, "calm.mp3") {
		t.Fatalf("muted render must not mix music: %s", joined)
	}
}

func TestRenderFailures(t *testing.T) {
	t.Run("ffmpeg", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakePublisher{})
		engine.WithCommandRunner(func(context.Context, string, ...string) error { return errors.New("exit status 1") })
		if err := engine.Render(context.Background(), testComposition(0.2), "job"); !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected external tool error, got %v", err)
		}
	})
	t.Run("probe mismatch", func(t *testing.T) {
		publisher := &fakePublisher{}
		engine, _ := newTestEngine(t, publisher)
		engine.WithProber(func(context.Context, string, string) (ffprobe.Result, error) {
			return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", Width: 1920, Height: 1080}, {CodecType: "audio"}}, Format: ffprobe.Format{Duration: "10"}}, nil
		})
		err := engine.Render(context.Background(), testComposition(0.2), "job")
		if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "frame size") {
			t.Fatalf("expected validation failure, got %v", err)
		}
		if len(publisher.ids) != 0 {
			t.Fatal("invalid render must not be published")
		}
	})
	t.Run("cleanup after publish", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakePublisher{err: services.Wrap(services.ErrCleanup, "storage", "remove", "x", nil)})
		if err := engine.Render(context.Background(), testComposition(0.2), "job"); err != nil {
			t.Fatalf("cleanup failure after publish must not fail the render: %v", err)
		}
	})
}

func TestRenderRemovesScratch(t *testing.T) {
	engine, _ := newTestEngine(t, &fakePublisher{})
	if err := engine.Render(context.Background(), testComposition(0.2), "job-3"); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	entries, err := os.ReadDir(engine.opts.WorkDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch dirs removed, found %d", len(entries))
	}
}
