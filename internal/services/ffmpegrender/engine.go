package ffmpegrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shortreel/internal/captions"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/render"
	"shortreel/internal/services"
)

// Publisher receives finished renders.
type Publisher interface {
	Put(ctx context.Context, id, localPath string) error
}

// Options configures the engine.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	FrameRate     int
	Preset        string
	CRF           int
	FontName      string
	FontSize      int
	MusicDir      string
	// WorkDir holds per-render scratch directories.
	WorkDir string
	Timeout time.Duration
	// DurationTolerance is the allowed drift between composition and output.
	DurationTolerance float64
}

// OptionsFromConfig maps the [render] and [captions] sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFmpegBinary:      cfg.Render.FFmpegBinary,
		FFprobeBinary:     cfg.Render.FFprobeBinary,
		FrameRate:         cfg.Render.FrameRate,
		Preset:            cfg.Render.Preset,
		CRF:               cfg.Render.CRF,
		FontName:          cfg.Captions.FontName,
		FontSize:          cfg.Captions.FontSize,
		MusicDir:          cfg.Paths.MusicDir,
		WorkDir:           cfg.Paths.StagingDir,
		Timeout:           time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		DurationTolerance: 0.5,
	}
}

// Engine renders compositions with ffmpeg.
type Engine struct {
	opts      Options
	publisher Publisher
	logger    *slog.Logger

	run   func(ctx context.Context, name string, args ...string) error
	probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// New builds an engine publishing to publisher.
func New(opts Options, publisher Publisher, logger *slog.Logger) *Engine {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 25
	}
	if opts.Preset == "" {
		opts.Preset = "veryfast"
	}
	return &Engine{
		opts:      opts,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "ffmpegrender"),
		run:       runCommand,
		probe:     ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.run = runner
}

// WithProber sets a custom ffprobe implementation (for testing).
func (e *Engine) WithProber(probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	e.probe = probe
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 2048))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// Render produces outputID from comp and publishes it.
func (e *Engine) Render(ctx context.Context, comp render.Composition, outputID string) error {
	logger := logging.WithContext(ctx, e.logger)
	if len(comp.Clips) == 0 {
		return services.Wrap(services.ErrValidation, "ffmpegrender", "render", "composition has no clips", nil)
	}
	if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "prepare", "create work dir", err)
	}
	workDir, err := os.MkdirTemp(e.opts.WorkDir, "render-"+outputID+"-")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "prepare", "create scratch dir", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(logger, "render scratch cleanup failed", "cleanup_failed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scratch files left in staging"),
			)
		}
	}()

	assPath := filepath.Join(workDir, "captions.ass")
	if err := e.writeCaptions(assPath, comp); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "captions", "", err)
	}
	musicPath := ""
	if comp.Music.File != "" {
		musicPath = filepath.Join(e.opts.MusicDir, comp.Music.File)
	}
	outPath := filepath.Join(workDir, outputID+".mp4")

	runCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	args := buildArgs(comp, e.opts, assPath, musicPath, outPath)
	logger.Debug("ffmpeg render starting",
		logging.String("output_id", outputID),
		logging.Int("clips", len(comp.Clips)),
		logging.Float64("duration_seconds", comp.DurationSeconds),
	)
	if err := e.run(runCtx, e.opts.FFmpegBinary, args...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ffmpegrender", "ffmpeg", fmt.Sprintf("exceeded %s", e.opts.Timeout), err)
		}
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "ffmpeg", "", err)
	}

	probe, err := e.probe(ctx, e.opts.FFprobeBinary, outPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "ffprobe", "", err)
	}
	if err := probe.Check(ffprobe.Expectation{
		Width:           comp.Style.Width,
		Height:          comp.Style.Height,
		DurationSeconds: comp.DurationSeconds,
		Tolerance:       e.opts.DurationTolerance,
	}); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpegrender", "validate output", "", err)
	}

	if err := e.publisher.Put(ctx, outputID, outPath); err != nil {
		if errors.Is(err, services.ErrCleanup) {
			logging.WarnWithContext(logger, "published render but local copy remained", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "scratch removed with render directory"),
			)
			return nil
		}
		return err
	}
	return nil
}

func (e *Engine) writeCaptions(path string, comp render.Composition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	style := captions.Style{
		Width:      comp.Style.Width,
		Height:     comp.Style.Height,
		Position:   comp.Style.CaptionPosition,
		Background: comp.Style.CaptionBackground,
		FontName:   e.opts.FontName,
		FontSize:   e.opts.FontSize,
	}
	if err := captions.WriteASS(f, comp.Captions, style); err != nil {
		return err
	}
	return f.Close()
}
