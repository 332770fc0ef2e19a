package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scribewatch/internal/render"
)

// timeLayout is the format collect expects for its range arguments.
const timeLayout = "2006-01-02 15:04:05"

// NewRenderCmd creates the render command
func NewRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE...",
		Short: "Render metadata JSON files as a readable transcript",
		Long: `Render metadata JSON files as a readable transcript.

Each file is printed as [speaker, MM:SS] lines, with a header naming the
file and, when the filename carries a YYYYMMDD_HHMMSS stamp, the recording
time. Combine with collect:

  scribewatch collect ./text "2025-10-18 23:40:00" "2025-10-19 01:30:00" | xargs scribewatch render`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := render.File(cmd.OutOrStdout(), path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", path, err)
				}
			}
			return nil
		},
	}
}

// NewCollectCmd creates the collect command
func NewCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect DIR START END",
		Short: "List metadata JSON files recorded within a time range",
		Long: `List metadata JSON files whose filename timestamps fall within a time
range, one path per line in chronological order. START and END use the form
"2006-01-02 15:04:05" in local time.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.ParseInLocation(timeLayout, args[1], time.Local)
			if err != nil {
				return fmt.Errorf("parse start time: %w", err)
			}
			end, err := time.ParseInLocation(timeLayout, args[2], time.Local)
			if err != nil {
				return fmt.Errorf("parse end time: %w", err)
			}

			paths, err := render.Collect(args[0], start, end)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
