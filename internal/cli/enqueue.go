package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiWinston/DeepFake-Forensic/internal/daemon"
	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
)

func init() {
	enqueueCmd.Flags().StringVar(&enqueueID, "id", "", "Task id (derived from content if empty)")
	enqueueCmd.Flags().StringVar(&enqueueType, "type", "NOISE",
		"Task type: OPTICAL_FLOW, TEMPORAL, FREQUENCY, NOISE, COPY_MOVE, IMAGE_CLASSIFY")
	enqueueCmd.Flags().StringVar(&enqueueFile, "file", "", "Local video path")
	enqueueCmd.Flags().StringVar(&enqueueURL, "url", "", "Video download URL")
	enqueueCmd.Flags().IntVar(&enqueueFrames, "frames", 0, "Frames to sample")
	rootCmd.AddCommand(enqueueCmd)
}

var (
	enqueueID     string
	enqueueType   string
	enqueueFile   string
	enqueueURL    string
	enqueueFrames int
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue an analysis task for the worker",
	RunE:  runEnqueue,
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	task := domain.Task{
		TaskID:       enqueueID,
		Type:         domain.TaskType(enqueueType),
		LocalPath:    enqueueFile,
		URL:          enqueueURL,
		SampleFrames: enqueueFrames,
	}
	if !task.Type.Known() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTaskType, task.Type)
	}
	if task.LocalPath == "" && task.SourceURL() == "" {
		return domain.ErrInputUnavailable
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	id := task.ID()
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	topic := queue.TopicFor(task.Type)
	if err := d.Broker.Publish(context.Background(), topic, id, payload); err != nil {
		return err
	}

	fmt.Printf("queued %s on %s\n", id, topic)
	return nil
}
