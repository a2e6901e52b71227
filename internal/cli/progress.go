package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LiWinston/DeepFake-Forensic/internal/daemon"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
)

func init() {
	progressCmd.Flags().BoolVar(&progressResult, "result", false, "Also print the published result, if any")
	rootCmd.AddCommand(progressCmd)
}

var progressResult bool

var progressCmd = &cobra.Command{
	Use:   "progress <task-id>",
	Short: "Show a task's progress record",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	taskID := args[0]
	rec, ok, err := d.Progress.Fetch(taskID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("no progress record for %s\n", taskID)
	} else {
		fmt.Printf("%3d%%  %s  (%s)\n", rec.Percent, rec.Message,
			rec.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if progressResult {
		msg, err := d.DB.LatestByKey(queue.TopicResults, taskID)
		if err != nil {
			return err
		}
		if msg == nil {
			fmt.Println("no result published yet")
			return nil
		}
		var pretty json.RawMessage = msg.Payload
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	}
	return nil
}
