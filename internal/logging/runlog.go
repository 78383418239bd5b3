package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"shortreel/internal/config"
)

// CurrentLogName is the link that always points at the active run log.
const CurrentLogName = "shortreel.log"

const runLogPattern = "shortreel-*.log"

// RunLog is the logger for one daemon run together with its file.
type RunLog struct {
	Logger *slog.Logger
	Path   string
}

// OpenRunLog creates shortreel-<runID>.log under the configured log directory,
// mirrors output to stdout and repoints CurrentLogName at the new file. An
// empty level uses logging.level from cfg.
func OpenRunLog(cfg *config.Config, runID, level string, development bool) (RunLog, error) {
	if level == "" {
		level = cfg.Logging.Level
	}
	path := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("shortreel-%s.log", runID))
	logger, err := New(Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", path},
		Development: development,
	})
	if err != nil {
		return RunLog{}, err
	}
	if err := pointCurrent(cfg.Paths.LogDir, path); err != nil {
		WarnWithContext(logger, "current log link not updated", "log_link_failed",
			Error(err),
			String(FieldImpact, "shortreel logs may show a previous run"),
		)
	}
	return RunLog{Logger: logger, Path: path}, nil
}

func pointCurrent(dir, target string) error {
	current := filepath.Join(dir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing link: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link current log: %w", err)
	}
	return nil
}

// PruneRunLogs deletes run logs in dir older than retentionDays, never
// touching active. It returns the number of files removed. retentionDays <= 0
// disables pruning.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	activeAbs, _ := filepath.Abs(active)

	removed := 0
	for _, path := range matches {
		if abs, _ := filepath.Abs(path); abs == activeAbs {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log not pruned", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("run logs pruned",
			String(FieldEventType, "log_pruned"),
			Int("removed", removed),
		)
	}
	return removed
}
