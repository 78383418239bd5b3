package logging

import (
	"context"
	"log/slog"

	"shortreel/internal/services"
)

// Standard attribute keys. Pipeline code uses these instead of ad hoc names so
// `shortreel logs --job` and log queries can rely on them.
const (
	FieldComponent = "component"
	FieldJobID     = "job_id"
	FieldStage     = "stage"
	FieldScene     = "scene" // 1-based
	FieldRequestID = "request_id"
	FieldEventType = "event_type"
	FieldErrorKind = "error_kind" // services.Kind
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact" // what the operator loses when a warning fires
)

// WithContext returns logger tagged with the job, stage, scene and request id
// stored in ctx. Missing values are skipped.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.JobIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldJobID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if scene, ok := services.SceneFromContext(ctx); ok {
		args = append(args, slog.Int(FieldScene, scene))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRequestID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
