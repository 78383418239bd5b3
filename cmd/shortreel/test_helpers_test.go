package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"shortreel/internal/config"
	"shortreel/internal/daemon"
	"shortreel/internal/logging"
	"shortreel/internal/music"
	"shortreel/internal/queue"
	"shortreel/internal/shorts"
	"shortreel/internal/storage"
	"shortreel/internal/testsupport"
)

// fakeRenderer publishes a placeholder video for each job.
type fakeRenderer struct {
	store storage.Store
	dir   string
}

func (f fakeRenderer) Process(ctx context.Context, job shorts.Job) error {
	path := filepath.Join(f.dir, job.ID+".mp4")
	if err := os.WriteFile(path, []byte("rendered:"+job.Scenes[0].Text), 0o644); err != nil {
		return err
	}
	return f.store.Put(ctx, job.ID, path)
}

type cliTestEnv struct {
	cfg        *config.Config
	queue      *queue.Queue
	store      *storage.Local
	daemon     *daemon.Daemon
	configPath string
	apiAddr    string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	scratch := filepath.Join(base, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatalf("mkdir scratch: %v", err)
	}
	store := storage.NewLocal(cfg.Paths.VideosDir)
	q := queue.New(fakeRenderer{store: store, dir: scratch}, store, cfg.TTS.DefaultVoice, logging.NewNop())
	catalog, err := music.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}

	d, err := daemon.New(cfg, daemon.Dependencies{Jobs: q, Store: store, Music: catalog}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &cliTestEnv{
		cfg:        cfg,
		queue:      q,
		store:      store,
		daemon:     d,
		configPath: configPath,
		apiAddr:    d.Address(),
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitIdle(t *testing.T, q *queue.Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Wait(ctx); err != nil {
		t.Fatalf("queue did not drain: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
