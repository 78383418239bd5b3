package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// JobDirPrefix prefixes every per-job working directory.
const JobDirPrefix = "job-"

// JobDir is a job's private working directory under the staging root.
type JobDir struct {
	Path string
}

// Name returns the directory's base name.
func (d JobDir) Name() string {
	return filepath.Base(d.Path)
}

// NewJobDir creates staging_dir/job-<uuid>.
func NewJobDir(stagingDir string) (JobDir, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return JobDir{}, fmt.Errorf("staging directory not configured")
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return JobDir{}, fmt.Errorf("ensure staging directory: %w", err)
	}
	path := filepath.Join(stagingDir, JobDirPrefix+uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return JobDir{}, fmt.Errorf("create job directory: %w", err)
	}
	return JobDir{Path: path}, nil
}

// Remove deletes the directory and everything in it.
func (d JobDir) Remove() error {
	if strings.TrimSpace(d.Path) == "" {
		return nil
	}
	return os.RemoveAll(d.Path)
}
