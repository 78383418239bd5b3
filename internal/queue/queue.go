package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/logging"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// Status is the externally visible state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Processor runs one job end to end.
type Processor interface {
	Process(ctx context.Context, job shorts.Job) error
}

// Artifacts reports which jobs have produced output.
type Artifacts interface {
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Entry is one row of List.
type Entry struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Snapshot summarizes the queue for status endpoints.
type Snapshot struct {
	Draining bool      `json:"draining"`
	Queued   int       `json:"queued"`
	ActiveID string    `json:"activeId,omitempty"`
	Since    time.Time `json:"since,omitzero"`
}

type workerState int

const (
	stateIdle workerState = iota
	stateDraining
)

// Queue is a FIFO of jobs drained by at most one worker.
type Queue struct {
	processor    Processor
	artifacts    Artifacts
	defaultVoice string
	logger       *slog.Logger
	newID        func() string
	now          func() time.Time

	mu      sync.Mutex
	jobs    []shorts.Job
	state   workerState
	started time.Time
	idle    chan struct{}
}

// New builds an idle queue. defaultVoice fills submissions without a voice.
func New(processor Processor, artifacts Artifacts, defaultVoice string, logger *slog.Logger) *Queue {
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		processor:    processor,
		artifacts:    artifacts,
		defaultVoice: defaultVoice,
		logger:       logging.NewComponentLogger(logger, "queue"),
		newID:        uuid.NewString,
		now:          time.Now,
		idle:         idle,
	}
}

// Submit validates sub, enqueues it and returns the job id. Validation
// failures are returned synchronously and nothing is enqueued.
func (q *Queue) Submit(ctx context.Context, sub shorts.Submission) (string, error) {
	normalized := sub.Normalize(q.defaultVoice)
	if err := normalized.Validate(); err != nil {
		return "", err
	}
	job := shorts.Job{
		ID:        q.newID(),
		Scenes:    normalized.Scenes,
		Config:    normalized.Config,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	startWorker := q.state == stateIdle
	if startWorker {
		q.state = stateDraining
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()

	logging.WithContext(services.WithJobID(ctx, job.ID), q.logger).Info("job queued",
		logging.String(logging.FieldEventType, "job_queued"),
		logging.Int("scenes", len(job.Scenes)),
		logging.Int("queue_depth", depth),
	)
	if startWorker {
		go q.drain()
	}
	return job.ID, nil
}

// drain processes the head of the queue until it is empty. The head is popped
// only after processing, so Status reports it as processing throughout.
func (q *Queue) drain() {
	q.mu.Lock()
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.started = q.now()
		q.mu.Unlock()

		q.run(job)

		q.mu.Lock()
		q.jobs = q.jobs[1:]
	}
	q.state = stateIdle
	q.started = time.Time{}
	close(q.idle)
	q.mu.Unlock()
}

// run is the error boundary for one job: failures and panics are logged and
// never reach the worker loop.
func (q *Queue) run(job shorts.Job) {
	ctx := services.WithJobID(context.Background(), job.ID)
	logger := logging.WithContext(ctx, q.logger)
	started := q.now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.Int("scenes", len(job.Scenes)),
	)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v\n%s", r, debug.Stack())
			}
		}()
		return q.processor.Process(ctx, job)
	}()

	if err != nil {
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldImpact, "no video produced; status reports failed"),
		)
		return
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Duration("elapsed", time.Since(started)),
	)
}

func (q *Queue) queued(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.ContainsFunc(q.jobs, func(j shorts.Job) bool { return j.ID == id })
}

// Status reports processing while id is queued, ready when its artifact
// exists, and failed otherwise.
func (q *Queue) Status(ctx context.Context, id string) (Status, error) {
	if q.queued(id) {
		return StatusProcessing, nil
	}
	exists, err := q.artifacts.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if exists {
		return StatusReady, nil
	}
	return StatusFailed, nil
}

// List combines queued jobs with stored artifacts. Queued jobs come first in
// submission order.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	q.mu.Lock()
	entries := make([]Entry, 0, len(q.jobs))
	seen := make(map[string]struct{}, len(q.jobs))
	for _, job := range q.jobs {
		entries = append(entries, Entry{ID: job.ID, Status: StatusProcessing})
		seen[job.ID] = struct{}{}
	}
	q.mu.Unlock()

	stored, err := q.artifacts.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range stored {
		if _, ok := seen[id]; ok {
			continue
		}
		entries = append(entries, Entry{ID: id, Status: StatusReady})
	}
	return entries, nil
}

// Snapshot returns the worker state.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	snap := Snapshot{Draining: q.state == stateDraining, Queued: len(q.jobs), Since: q.started}
	if len(q.jobs) > 0 && q.state == stateDraining {
		snap.ActiveID = q.jobs[0].ID
	}
	return snap
}

// Wait blocks until the queue is idle or ctx ends.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
