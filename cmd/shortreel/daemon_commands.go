package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/api"
	"shortreel/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the shortreel daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				ctx.client(),
				exe,
				daemonLaunchOptions(ctx, startLogLevel),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d) on %s\n", result.PID, ctx.apiAddress())
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override logging.level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the shortreel daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), ctx.client(), ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the shortreel daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				cmd.Context(),
				ctx.client(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx, restartLogLevel),
				10*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}
			if result.WasRunning {
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Override logging.level for the launched daemon")

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.client(), cfg)
			if err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			pr := newPrinter(cmd.OutOrStdout())
			if statusJSON {
				return pr.json(status)
			}

			pr.section("System Status")
			if status.Running {
				pr.check("Daemon", levelOK, fmt.Sprintf("Running (pid %d, %s)", status.PID, ctx.apiAddress()))
			} else {
				pr.check("Daemon", levelWarn, "Not running (run `shortreel start`)")
			}
			pr.check("Storage", levelInfo, status.Storage)
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
				pr.check("Notifications", levelOK, "Configured")
			} else {
				pr.check("Notifications", levelInfo, "Not configured")
			}
			pr.check("API auth", levelInfo, yesNo(cfg.Paths.APIToken != ""))
			fmt.Fprintln(pr.w)

			pr.section("Dependencies")
			for _, line := range dependencyLines(pr, status.Dependencies) {
				fmt.Fprintln(pr.w, line)
			}
			fmt.Fprintln(pr.w)

			pr.section("Queue Status")
			if !status.Running {
				fmt.Fprintln(pr.w, "Queue unavailable while the daemon is stopped")
			} else {
				active := status.Queue.ActiveID
				if active == "" {
					active = "-"
				}
				pr.table([]string{"Field", "Value"}, [][]string{
					{"Draining", yesNo(status.Queue.Draining)},
					{"Queued", strconv.Itoa(status.Queue.Queued)},
					{"Active job", active},
					{"Since", formatDisplayTime(status.Queue.Since)},
				}, 1)
			}

			if len(status.Staging) > 0 {
				fmt.Fprintln(pr.w)
				pr.section("Staging")
				rows := make([][]string, 0, len(status.Staging))
				for _, dir := range status.Staging {
					rows = append(rows, []string{dir.Name, humanBytes(dir.SizeBytes), formatDisplayTime(dir.Modified)})
				}
				pr.table([]string{"Directory", "Size", "Modified"}, rows, 1)
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status as JSON")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func dependencyLines(pr printer, deps []api.DependencyStatus) []string {
	lines := make([]string, 0, len(deps)+1)
	var missing []string
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, pr.checkLine(dep.Name, levelOK, message))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		level := levelError
		if dep.Optional {
			level = levelWarn
		}
		lines = append(lines, pr.checkLine(dep.Name, level, detail))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, pr.checkLine("Missing dependencies", levelWarn, strings.Join(missing, ", ")))
	}
	return lines
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		ConfigPath: ctx.configPath(),
		LogLevel:   strings.TrimSpace(logLevel),
	}
}
