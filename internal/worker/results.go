package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
)

// ─── Result Publishing ──────────────────────────────────────────────────────

// ResultPublisher emits terminal result envelopes to the results topic,
// keyed by task id.
type ResultPublisher struct {
	pub   queue.Publisher
	topic string
}

// NewResultPublisher creates a publisher onto the results topic.
func NewResultPublisher(pub queue.Publisher) *ResultPublisher {
	return &ResultPublisher{pub: pub, topic: queue.TopicResults}
}

// Success publishes {success: true, data}.
func (r *ResultPublisher) Success(ctx context.Context, taskID string, data *domain.ResultData) error {
	return r.publish(ctx, taskID, domain.Result{Success: true, Data: data})
}

// Failure publishes {success: false, error, task}, echoing the original
// message for diagnosis.
func (r *ResultPublisher) Failure(ctx context.Context, taskID string, cause error, original json.RawMessage) error {
	return r.publish(ctx, taskID, domain.Result{
		Success: false,
		Error:   cause.Error(),
		Task:    original,
	})
}

func (r *ResultPublisher) publish(ctx context.Context, taskID string, result domain.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrPublishFailed, err)
	}
	if err := r.pub.Publish(ctx, r.topic, taskID, payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}
	return nil
}
