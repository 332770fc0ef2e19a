package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the scribewatch CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scribewatch",
		Short: "Transcription watcher for audio recordings",
		Long:  "Scribewatch polls a directory for audio recordings, repairs broken FLAC metadata, transcribes speech through a remote API and writes transcript sidecars next to each recording",
	}

	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewRenderCmd())
	rootCmd.AddCommand(NewCollectCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
