package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/LiWinston/DeepFake-Forensic/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "Serve the API only, without consuming tasks")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost     string
	servePort     int
	serveNoWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the worker and its HTTP API",
	Long:  `Start the task consumer and the HTTP API for submission, progress, and results.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		d.Config.API.Host = serveHost
	}
	if servePort > 0 {
		d.Config.API.Port = servePort
	}
	if serveNoWorker {
		d.Config.Worker.Enabled = false
	}

	return d.Serve(context.Background())
}
