package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribewatch/internal/scribe/pidfile"
	"scribewatch/internal/scribe/status"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show watch loop status and today's counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			pidPath, err := pidfile.DefaultPath()
			if err != nil {
				return err
			}
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return err
			}

			switch {
			case running:
				fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
			case pid != 0:
				fmt.Fprintf(out, "Status: not running (stale PID file, PID %d)\n", pid)
			default:
				fmt.Fprintln(out, "Status: not running")
			}

			stats, err := status.ParseTodayStats()
			if err != nil {
				return fmt.Errorf("parse log: %w", err)
			}

			fmt.Fprintf(out, "Processed today: %d\n", stats.FilesProcessed)
			fmt.Fprintf(out, "Errors today:    %d\n", stats.Errors)
			if stats.LastProcessed != nil {
				fmt.Fprintf(out, "Last processed:  %s (%s)\n",
					stats.LastProcessed.Path,
					status.FormatTimestamp(stats.LastProcessed.Timestamp),
				)
			}

			return nil
		},
	}
}
