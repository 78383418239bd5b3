package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shortreel/internal/logging"
	"shortreel/internal/services"
)

// Engine produces the artifact addressed by outputID on persistent storage.
type Engine interface {
	Render(ctx context.Context, comp Composition, outputID string) error
}

// Policy bounds render retries.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Dispatcher submits compositions to the engine.
type Dispatcher struct {
	engine Engine
	policy Policy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires a dispatcher. MaxAttempts below 1 is treated as 1.
func NewDispatcher(engine Engine, policy Policy, logger *slog.Logger) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Dispatcher{
		engine: engine,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "render"),
		sleep:  sleepWithContext,
	}
}

// Dispatch renders comp, retrying failures up to the policy bound. Validation
// and configuration failures are returned immediately. Exhausting the bound
// yields an error marked services.ErrRender.
func (d *Dispatcher) Dispatch(ctx context.Context, comp Composition, outputID string) error {
	logger := logging.WithContext(ctx, d.logger)
	var lastErr error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		started := time.Now()
		err := d.engine.Render(ctx, comp, outputID)
		if err == nil {
			logger.Info("render complete",
				logging.String(logging.FieldEventType, "render_complete"),
				logging.String("output_id", outputID),
				logging.Int("attempt", attempt),
				logging.Duration("elapsed", time.Since(started)),
			)
			return nil
		}
		if !services.IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
		if attempt == d.policy.MaxAttempts {
			break
		}
		logging.WarnWithContext(logger, "render attempt failed; retrying", "render_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", d.policy.MaxAttempts),
			logging.Duration("delay", d.policy.Delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect ffmpeg output in the error message"),
			logging.String(logging.FieldImpact, "render delayed"),
		)
		if err := d.sleep(ctx, d.policy.Delay); err != nil {
			return err
		}
	}
	return services.Wrap(services.ErrRender, "render", "dispatch",
		fmt.Sprintf("%d attempts failed for %s", d.policy.MaxAttempts, outputID), lastErr)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
