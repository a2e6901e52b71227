// Package cli implements the forensic command-line interface using Cobra.
// Each subcommand maps to one worker capability (serve, analyze, enqueue,
// progress).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forensic",
	Short: "Deepfake forensic analysis worker",
	Long: `Signal-processing deepfake detection for video.

Runs five detectors (optical flow, temporal consistency, frequency domain,
noise pattern, copy-move) either directly on local files or as a queue
worker consuming analysis tasks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
