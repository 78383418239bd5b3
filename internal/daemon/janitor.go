package daemon

import (
	"context"
	"time"

	"shortreel/internal/logging"
	"shortreel/internal/staging"
)

// sweep removes abandoned job directories and expired logs.
func (d *Daemon) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result := staging.CleanStale(ctx, d.cfg.Paths.StagingDir, d.cfg.StagingMaxAge(), d.deps.ActiveDirs(), d.logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		d.logger.Info("staging sweep finished",
			logging.String(logging.FieldEventType, "staging_sweep"),
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}

	logging.PruneRunLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, d.deps.LogPath)
}
