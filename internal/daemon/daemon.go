package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"shortreel/internal/config"
	"shortreel/internal/deps"
	"shortreel/internal/logging"
	"shortreel/internal/preflight"
	"shortreel/internal/queue"
	"shortreel/internal/shorts"
	"shortreel/internal/staging"
	"shortreel/internal/storage"
)

// Jobs is the queue surface the daemon exposes.
type Jobs interface {
	Submit(ctx context.Context, sub shorts.Submission) (string, error)
	Status(ctx context.Context, id string) (queue.Status, error)
	List(ctx context.Context) ([]queue.Entry, error)
	Snapshot() queue.Snapshot
}

// MoodLister reports the moods the music catalog can satisfy.
type MoodLister interface {
	Moods() []shorts.Mood
}

// Dependencies are the services the daemon fronts.
type Dependencies struct {
	Jobs  Jobs
	Store storage.Store
	Music MoodLister
	// ActiveDirs names staging directories owned by running jobs.
	ActiveDirs func() map[string]struct{}
	// LogPath is the current run's log file, exempt from retention.
	LogPath string
}

// Daemon serves the HTTP API, runs the staging janitor and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Dependencies

	lockPath string
	lock     *flock.Flock

	cron *cron.Cron
	api  *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	Storage      string
	Queue        queue.Snapshot
	Dependencies []deps.Status
	Staging      []staging.DirInfo
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, d Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || d.Jobs == nil || d.Store == nil || d.Music == nil {
		return nil, errors.New("daemon requires config, queue, storage and music catalog")
	}
	if d.ActiveDirs == nil {
		d.ActiveDirs = func() map[string]struct{} { return nil }
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := filepath.Join(cfg.Paths.LogDir, "shortreel.lock")
	daemon := &Daemon{
		cfg:      cfg,
		logger:   logger,
		deps:     d,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		cron:     cron.New(),
	}
	if _, err := daemon.cron.AddFunc(cfg.Workflow.JanitorSchedule, daemon.sweep); err != nil {
		return nil, fmt.Errorf("workflow.janitor_schedule: %w", err)
	}
	daemon.api = newAPIServer(cfg, daemon, logger)
	return daemon, nil
}

// Start acquires the daemon lock, starts the janitor and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shortreel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.sweep()
	d.cron.Start()

	d.running.Store(true)
	d.logger.Info("shortreel daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop stops serving and releases the daemon lock. Jobs already running are
// not interrupted.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	<-d.cron.Stop().Done()
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("shortreel daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Address returns the address the API listens on, once started.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	dirs, err := staging.ListDirectories(d.cfg.Paths.StagingDir)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "staging listing failed", "staging_list_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status omits staging usage"),
		)
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Storage:      storageLabel(d.cfg),
		Queue:        d.deps.Jobs.Snapshot(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Staging:      dirs,
	}
}

func storageLabel(cfg *config.Config) string {
	if cfg.Storage.Backend == config.StorageS3 {
		return "s3://" + cfg.Storage.S3Bucket + "/" + cfg.Storage.S3Prefix
	}
	return cfg.Paths.VideosDir
}
