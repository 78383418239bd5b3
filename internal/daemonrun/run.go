// Package daemonrun assembles the shortreel service graph and runs the daemon
// until it receives SIGINT or SIGTERM.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/daemon"
	"shortreel/internal/deps"
	"shortreel/internal/footage"
	"shortreel/internal/logging"
	"shortreel/internal/music"
	"shortreel/internal/notifications"
	"shortreel/internal/preflight"
	"shortreel/internal/queue"
	"shortreel/internal/render"
	"shortreel/internal/services"
	"shortreel/internal/services/ffmpegrender"
	"shortreel/internal/services/pexels"
	"shortreel/internal/services/tts"
	"shortreel/internal/services/whisperx"
	"shortreel/internal/storage"
	"shortreel/internal/synth"
	"shortreel/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the shortreel daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	runLog, err := logging.OpenRunLog(cfg, runID, opts.LogLevel, opts.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := runLog.Logger
	logPath := runLog.Path

	if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg, false)); len(failed) > 0 {
		parts := make([]string, len(failed))
		for i, result := range failed {
			parts[i] = result.Name + ": " + result.Detail
		}
		return services.Wrap(services.ErrConfiguration, "startup", "preflight", strings.Join(parts, "; "), nil)
	}
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "shortreel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	catalog, err := music.DefaultCatalog()
	if err != nil {
		return err
	}
	if err := catalog.VerifyFiles(cfg.Paths.MusicDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "startup", "verify music", "music library incomplete", err)
	}

	store, err := storage.NewFromConfig(signalCtx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	pipeline := buildPipeline(cfg, catalog, store, logger)
	jobs := queue.New(pipeline, store, cfg.TTS.DefaultVoice, logger)

	d, err := daemon.New(cfg, daemon.Dependencies{
		Jobs:       jobs,
		Store:      store,
		Music:      catalog,
		ActiveDirs: pipeline.ActiveDirs,
		LogPath:    logPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("shortreel daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"),
		logging.Int("queued", jobs.Snapshot().Queued),
	)
	d.Stop()
	return nil
}

func buildPipeline(cfg *config.Config, catalog music.Catalog, store storage.Store, logger *slog.Logger) *workflow.Pipeline {
	seed := uint64(time.Now().UnixNano())

	footageOpts := footage.DefaultOptions()
	footageOpts.Timeout = cfg.PexelsTimeout()
	footageOpts.MaxRetries = cfg.Pexels.MaxRetries
	matcher := footage.NewMatcher(pexels.NewFromConfig(cfg), footageOpts, rand.New(rand.NewPCG(seed, 1)), logger)

	synthesizer := synth.New(
		tts.NewFromConfig(cfg),
		whisperx.NewService(whisperx.ConfigFromShortreel(cfg), cfg.Render.FFmpegBinary),
		matcher,
		logger,
	)
	synthesizer.WithImageDir(cfg.Paths.ImagesDir)

	engine := ffmpegrender.New(ffmpegrender.OptionsFromConfig(cfg), store, logger)
	dispatcher := render.NewDispatcher(engine, render.Policy{
		MaxAttempts: cfg.Render.MaxAttempts,
		Delay:       cfg.RenderRetryDelay(),
	}, logger)

	return workflow.NewPipeline(
		workflow.OptionsFromConfig(cfg),
		synthesizer,
		music.NewSelector(catalog, rand.New(rand.NewPCG(seed, 2))),
		dispatcher,
		notifications.NewService(cfg),
		logger,
	)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("pexels_key_present", cfg.Pexels.APIKey != ""),
		logging.Bool("tts_key_present", cfg.TTS.APIKey != ""),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("api_auth", cfg.Paths.APIToken != ""),
	}
	for _, status := range statuses {
		attrs = append(attrs, logging.Bool(strings.ToLower(status.Name)+"_available", status.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	for _, missing := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "external dependency unavailable", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String("command", missing.Command),
			logging.String(logging.FieldErrorHint, missing.Detail),
			logging.String(logging.FieldImpact, "jobs will fail until it is installed"),
		)
	}
}
