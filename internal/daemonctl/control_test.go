package daemonctl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"shortreel/internal/api"
	"shortreel/internal/daemonctl"
	"shortreel/internal/testsupport"
)

type fakeProber struct {
	status api.DaemonStatus
	err    error
}

func (f fakeProber) DaemonStatus(context.Context) (api.DaemonStatus, error) {
	return f.status, f.err
}

func unreachableClient(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()
	return api.NewClient(addr, "", &http.Client{Timeout: time.Second})
}

func TestProcessInfoTreatsConnectionFailureAsStopped(t *testing.T) {
	alive, pid, err := daemonctl.ProcessInfo(context.Background(), unreachableClient(t))
	if err != nil || alive || pid != 0 {
		t.Fatalf("expected stopped daemon, got alive=%v pid=%d err=%v", alive, pid, err)
	}
}

func TestProcessInfoReportsAPIErrors(t *testing.T) {
	prober := fakeProber{err: &api.Error{StatusCode: http.StatusUnauthorized, Message: "unauthorized"}}
	alive, _, err := daemonctl.ProcessInfo(context.Background(), prober)
	if !alive || err == nil {
		t.Fatalf("expected reachable daemon with error, got alive=%v err=%v", alive, err)
	}
}

func TestEnsureStartedSkipsLaunchWhenRunning(t *testing.T) {
	prober := fakeProber{status: api.DaemonStatus{Running: true, PID: 42}}
	result, err := daemonctl.EnsureStarted(context.Background(), prober, "/nonexistent/shortreel", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.Launched || result.PID != 42 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestStopReportsNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(context.Background(), unreachableClient(t), cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shortreel.pid")
	if _, err := daemonctl.ReadPID(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if err := os.WriteFile(path, []byte("1234\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := daemonctl.ReadPID(path)
	if err != nil || pid != 1234 {
		t.Fatalf("expected 1234, got %d err=%v", pid, err)
	}
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ReadPID(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "shortreel.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
	if _, err := os.Stat(pidPath); err != nil {
		t.Fatalf("pid file must survive a refused kill: %v", err)
	}
}

func TestBuildStatusSnapshotOfflineFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	if err := os.MkdirAll(filepath.Join(cfg.Paths.StagingDir, "job-abc"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	status, err := daemonctl.BuildStatusSnapshot(context.Background(), unreachableClient(t), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("expected offline status")
	}
	if len(status.Dependencies) != 3 {
		t.Fatalf("expected dependency checks, got %+v", status.Dependencies)
	}
	if len(status.Staging) != 1 || status.Staging[0].Name != "job-abc" {
		t.Fatalf("expected staging listing, got %+v", status.Staging)
	}
}
