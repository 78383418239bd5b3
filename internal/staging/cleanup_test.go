package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortreel/internal/logging"
)

func makeDir(t *testing.T, parent, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatalf("set time: %v", err)
		}
	}
	return dir
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := makeDir(t, tmpDir, "job-old", 2*time.Hour)
	recentDir := makeDir(t, tmpDir, "job-recent", 0)

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatal("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Fatal("recent directory should still exist")
	}
}

func TestCleanStaleKeepsActiveJobs(t *testing.T) {
	tmpDir := t.TempDir()
	active := makeDir(t, tmpDir, "job-active", 3*time.Hour)
	makeDir(t, tmpDir, "job-abandoned", 3*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, map[string]struct{}{"job-active": {}}, logging.NewNop())
	if len(result.Removed) != 1 || !strings.HasSuffix(result.Removed[0], "job-abandoned") {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatalf("active job directory removed: %v", err)
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "old-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestNewJobDirAndRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "staging")
	dir, err := NewJobDir(root)
	if err != nil {
		t.Fatalf("NewJobDir: %v", err)
	}
	if !strings.HasPrefix(dir.Name(), JobDirPrefix) || filepath.Dir(dir.Path) != root {
		t.Fatalf("unexpected job dir %q", dir.Path)
	}
	other, err := NewJobDir(root)
	if err != nil {
		t.Fatalf("NewJobDir: %v", err)
	}
	if other.Path == dir.Path {
		t.Fatal("expected distinct job directories")
	}
	if err := os.WriteFile(filepath.Join(dir.Path, "scene-001.wav"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := dir.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(dir.Path); !os.IsNotExist(err) {
		t.Fatalf("expected job dir removed, stat err %v", err)
	}
	if _, err := NewJobDir("  "); err == nil {
		t.Fatal("expected error for blank staging dir")
	}
}

func TestListDirectoriesReportsSize(t *testing.T) {
	tmpDir := t.TempDir()
	dir := makeDir(t, tmpDir, "job-a", 0)
	if err := os.WriteFile(filepath.Join(dir, "a.wav"), make([]byte, 128), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != "job-a" || dirs[0].Size != 128 {
		t.Fatalf("unexpected listing %+v", dirs)
	}
}
