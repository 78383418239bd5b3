// Package daemonctl launches, probes and stops the shortreel daemon process on
// behalf of the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shortreel/internal/api"
	"shortreel/internal/config"
	"shortreel/internal/preflight"
	"shortreel/internal/staging"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// Prober reports daemon runtime status; *api.Client satisfies it.
type Prober interface {
	DaemonStatus(ctx context.Context) (api.DaemonStatus, error)
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	ForcedKill bool
	PID        int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

const pollInterval = 200 * time.Millisecond

// PIDPath returns the pid file the daemon writes.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "shortreel.pid")
}

// LockPath returns the single-instance lock file.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "shortreel.lock")
}

// Launch starts a detached shortreel daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls until the daemon answers a status request.
func WaitForAPI(ctx context.Context, prober Prober, timeout time.Duration) (api.DaemonStatus, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := prober.DaemonStatus(ctx)
		if err == nil && status.Running {
			return status, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return api.DaemonStatus{}, ctx.Err()
		}
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return api.DaemonStatus{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless it already answers.
func EnsureStarted(ctx context.Context, prober Prober, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if status, err := prober.DaemonStatus(ctx); err == nil && status.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForAPI(ctx, prober, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: status.PID}, nil
}

// ProcessInfo returns whether the daemon API is reachable and the daemon PID.
func ProcessInfo(ctx context.Context, prober Prober) (bool, int, error) {
	status, err := prober.DaemonStatus(ctx)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return true, 0, err
	}
	return true, status.PID, nil
}

// WaitForShutdown waits for the daemon API to disappear.
func WaitForShutdown(ctx context.Context, prober Prober, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		alive, _, _ := ProcessInfo(ctx, prober)
		if !alive {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// ReadPID parses the daemon pid file.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", pidPath)
	}
	return pid, nil
}

func signalProcess(pid int, sig os.Signal) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}

// ForceKillProcess sends SIGKILL to the daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	if parsed, err := ReadPID(pidPath); err == nil {
		pid = parsed
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read daemon pid file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if err := signalProcess(pid, os.Kill); err != nil {
		return 0, err
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// StopAndTerminate sends SIGTERM to the daemon and force-kills the process if
// its API still answers after gracePeriod.
func StopAndTerminate(ctx context.Context, prober Prober, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	alive, pid, err := ProcessInfo(ctx, prober)
	if err != nil {
		return StopResult{}, err
	}
	if !alive {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid == 0 {
		if pid, err = ReadPID(PIDPath(cfg)); err != nil {
			return StopResult{}, fmt.Errorf("unable to determine daemon pid: %w", err)
		}
	}
	if err := signalProcess(pid, syscall.SIGTERM); err != nil {
		return StopResult{}, err
	}

	result := StopResult{PID: pid}
	if WaitForShutdown(ctx, prober, gracePeriod) == nil {
		return result, nil
	}
	killedPID, killErr := ForceKillProcess(PIDPath(cfg), LockPath(cfg), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(ctx context.Context, prober Prober, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(ctx, prober, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(ctx, prober, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// BuildStatusSnapshot fetches daemon status, falling back to local checks
// when the daemon is not reachable.
func BuildStatusSnapshot(ctx context.Context, prober Prober, cfg *config.Config) (api.DaemonStatus, error) {
	if cfg == nil {
		return api.DaemonStatus{}, errors.New("configuration not available")
	}
	status, err := prober.DaemonStatus(ctx)
	if err == nil {
		return status, nil
	}
	if !isDaemonUnavailable(err) {
		return api.DaemonStatus{}, err
	}

	status = api.DaemonStatus{
		LockFilePath: LockPath(cfg),
		Storage:      cfg.Storage.Backend,
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cfg)),
	}
	if dirs, listErr := staging.ListDirectories(cfg.Paths.StagingDir); listErr == nil {
		status.Staging = api.FromStagingDirs(dirs)
	}
	return status, nil
}

func isDaemonUnavailable(err error) bool {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) || errors.Is(err, syscall.ECONNREFUSED)
}
