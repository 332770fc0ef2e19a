package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scribewatch/internal/scribe"
	"scribewatch/internal/scribe/logging"
	"scribewatch/internal/scribe/pidfile"
)

// stopTimeout is the maximum time to wait for graceful shutdown before
// escalating to SIGKILL.
const stopTimeout = 10 * time.Second

// ErrNotRunning indicates the watch loop is not running
var ErrNotRunning = errors.New("scribewatch is not running")

// ErrStaleProcess indicates the PID file exists but the process is not running
var ErrStaleProcess = errors.New("stale PID file (process not running)")

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the audio directory and transcribe new recordings",
		Long: `Watch the audio directory and transcribe new recordings.

Configuration comes from SCRIBE_* environment variables; a .env file in the
working directory (or one named with --env-file) is loaded first. The loop
scans the directory, skips anything that already has a transcript sidecar,
gates out silent recordings, repairs corrupted FLAC metadata and submits the
rest to the transcription API, then sleeps out the scan interval and repeats.

The process runs until interrupted with Ctrl+C or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; explicit --env-file is not.
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			} else {
				godotenv.Load()
			}

			cfg, err := scribe.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logConfig := logging.DefaultConfig()
			logConfig.Console = cmd.ErrOrStderr()

			svc, err := scribe.NewService(cfg, logConfig)
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			pidPath, err := pidfile.DefaultPath()
			if err != nil {
				return err
			}
			if running, pid, _ := pidfile.IsRunning(pidPath); running {
				return fmt.Errorf("already running (PID %d)", pid)
			}
			if err := pidfile.Write(pidPath, os.Getpid()); err != nil {
				return fmt.Errorf("write PID file: %w", err)
			}
			defer pidfile.Remove(pidPath)

			fmt.Fprintf(cmd.OutOrStdout(), "Watching:  %s\n", cfg.AudioDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Output:    %s\n", cfg.OutputDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Model:     %s\n", cfg.Model)
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
			fmt.Fprintln(cmd.OutOrStdout())

			return svc.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "env file to load before reading configuration")

	return cmd
}

// NewStopCmd creates the stop command
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running watch loop",
		Long: `Stop a running watch loop.

Reads the PID from ~/.scribewatch/scribewatch.pid and sends SIGTERM for
graceful shutdown. If the process doesn't exit within 10 seconds, SIGKILL is
sent to force termination. The PID file is removed after the process exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd)
		},
	}
}

func runStop(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pidPath, err := pidfile.DefaultPath()
	if err != nil {
		return err
	}

	pid, err := pidfile.Read(pidPath)
	if err != nil {
		if errors.Is(err, pidfile.ErrNoPIDFile) {
			return ErrNotRunning
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		if removeErr := pidfile.Remove(pidPath); removeErr != nil {
			fmt.Fprintf(out, "Warning: failed to remove stale PID file: %v\n", removeErr)
		}
		return ErrStaleProcess
	}

	fmt.Fprintf(out, "Stopping scribewatch (PID %d)...\n", pid)

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	if !waitForExit(pid, stopTimeout) {
		fmt.Fprintln(out, "Process did not exit gracefully, sending SIGKILL...")
		if err := process.Signal(syscall.SIGKILL); err != nil {
			if !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("send SIGKILL: %w", err)
			}
		}
		waitForExit(pid, 2*time.Second)
	}

	if err := pidfile.Remove(pidPath); err != nil {
		fmt.Fprintf(out, "Warning: failed to remove PID file: %v\n", err)
	}

	fmt.Fprintln(out, "Scribewatch stopped")
	return nil
}

// waitForExit polls until the process exits or timeout is reached
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	pollInterval := 100 * time.Millisecond

	for time.Now().Before(deadline) {
		process, err := os.FindProcess(pid)
		if err != nil {
			return true
		}
		if err := process.Signal(syscall.Signal(0)); err != nil {
			return true
		}
		time.Sleep(pollInterval)
	}

	return false
}
