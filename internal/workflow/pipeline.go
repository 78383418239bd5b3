package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shortreel/internal/captions"
	"shortreel/internal/chunker"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/notifications"
	"shortreel/internal/render"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
	"shortreel/internal/staging"
	"shortreel/internal/synth"
)

// Synthesizer produces assembled scenes for a job.
type Synthesizer interface {
	Synthesize(ctx context.Context, workDir string, scenes []shorts.SceneRequest, cfg shorts.RenderConfig) (synth.Result, error)
}

// MusicSelector picks the soundtrack.
type MusicSelector interface {
	Select(mood shorts.Mood) (shorts.MusicTrack, error)
}

// Dispatcher renders and stores the composition.
type Dispatcher interface {
	Dispatch(ctx context.Context, comp render.Composition, outputID string) error
}

// Options carries the pipeline's tunables.
type Options struct {
	StagingDir string
	Chunking   chunker.Options
	Captions   captions.Options
}

// OptionsFromConfig derives pipeline options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StagingDir: cfg.Paths.StagingDir,
		Chunking: chunker.Options{
			TargetSeconds:  cfg.Chunking.TargetSeconds,
			CharsPerSecond: cfg.Chunking.CharsPerSecond,
		},
		Captions: captions.Options{
			MaxLineChars: cfg.Captions.LineMaxChars,
			MaxLines:     cfg.Captions.LinesPerPage,
			MaxGapMs:     int64(cfg.Captions.MaxGapMS),
		},
	}
}

// Pipeline processes jobs handed over by the queue.
type Pipeline struct {
	opts     Options
	synth    Synthesizer
	music    MusicSelector
	render   Dispatcher
	notifier notifications.Service
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewPipeline wires a pipeline. A nil notifier disables notifications.
func NewPipeline(opts Options, synthesizer Synthesizer, music MusicSelector, dispatcher Dispatcher, notifier notifications.Service, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		opts:     opts,
		synth:    synthesizer,
		music:    music,
		render:   dispatcher,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		active:   make(map[string]struct{}),
	}
}

// Process runs job to completion or first failure.
func (p *Pipeline) Process(ctx context.Context, job shorts.Job) error {
	started := time.Now()
	result, err := p.process(ctx, job)
	if err != nil {
		p.notifyFailed(ctx, job, err)
		return err
	}
	p.notify(ctx, notifications.EventJobReady, notifications.Payload{
		"jobID":    job.ID,
		"scenes":   len(result.Scenes),
		"duration": time.Duration(result.TotalSeconds * float64(time.Second)),
	})
	logging.WithContext(ctx, p.logger).Info("job pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("scenes", len(result.Scenes)),
		logging.Float64("video_seconds", result.TotalSeconds),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (p *Pipeline) process(ctx context.Context, job shorts.Job) (synth.Result, error) {
	dir, err := staging.NewJobDir(p.opts.StagingDir)
	if err != nil {
		return synth.Result{}, services.Wrap(services.ErrConfiguration, "prepare", "staging", "create job directory", err)
	}
	p.track(dir.Name(), true)
	defer func() {
		p.track(dir.Name(), false)
		if err := dir.Remove(); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "job directory cleanup failed", "staging_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(services.Wrap(services.ErrCleanup, "cleanup", "remove", "job directory", err)),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "janitor will remove it later"),
			)
		}
	}()

	scenes := chunker.Prepare(job.Scenes, p.opts.Chunking)
	logger := logging.WithContext(ctx, p.logger)
	if len(scenes) != len(job.Scenes) {
		logger.Info("long scenes split",
			logging.String(logging.FieldEventType, "scenes_prepared"),
			logging.Int("requested", len(job.Scenes)),
			logging.Int("prepared", len(scenes)),
		)
	}

	result, err := p.synth.Synthesize(services.WithStage(ctx, "synthesize"), dir.Path, scenes, job.Config)
	if err != nil {
		return synth.Result{}, err
	}

	track, err := p.music.Select(job.Config.Music)
	if err != nil {
		return synth.Result{}, err
	}
	logger.Debug("music selected",
		logging.String("file", track.File),
		logging.String("mood", string(track.Mood)),
	)

	comp, err := render.Build(result.Scenes, track, result.TotalSeconds, job.Config, p.opts.Captions)
	if err != nil {
		return synth.Result{}, err
	}
	if err := p.render.Dispatch(services.WithStage(ctx, "render"), comp, job.ID); err != nil {
		return synth.Result{}, err
	}
	return result, nil
}

// ActiveDirs returns the names of staging directories owned by running jobs.
func (p *Pipeline) ActiveDirs() map[string]struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]struct{}, len(p.active))
	for name := range p.active {
		out[name] = struct{}{}
	}
	return out
}

func (p *Pipeline) track(name string, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if active {
		p.active[name] = struct{}{}
	} else {
		delete(p.active, name)
	}
}

func (p *Pipeline) notifyFailed(ctx context.Context, job shorts.Job, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	p.notify(ctx, notifications.EventJobFailed, notifications.Payload{
		"jobID": job.ID,
		"kind":  services.Kind(err),
		"error": err,
	})
}

func (p *Pipeline) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			p.logger.Debug("daemon shutting down, could not send notification")
			return
		}
		logging.WithContext(ctx, p.logger).Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
