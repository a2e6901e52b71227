// Package queue carries analysis tasks to the worker and results back out.
//
// The broker is a durable SQLite-backed queue with at-least-once delivery:
// a claimed message stays hidden for a visibility window and reappears if
// never acked. Consumers poll; there is no push path.
package queue

import (
	"context"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// ─── Topics ─────────────────────────────────────────────────────────────────

const (
	// TopicImageAI carries image classification tasks.
	TopicImageAI = "image-ai-analysis-tasks"

	// TopicVideoTraditional carries signal-processing video analysis tasks.
	TopicVideoTraditional = "video-traditional-analysis-tasks"

	// TopicVideoAI carries model-backed video analysis tasks.
	TopicVideoAI = "video-ai-analysis-tasks"

	// TopicResults receives completion envelopes for every task.
	TopicResults = "analysis-results"
)

// TaskTopics are the topics a worker subscribes to.
var TaskTopics = []string{TopicImageAI, TopicVideoTraditional, TopicVideoAI}

// TopicFor returns the topic a task of the given type is published on.
func TopicFor(t domain.TaskType) string {
	if t == domain.TaskImageClassify {
		return TopicImageAI
	}
	return TopicVideoTraditional
}

// ─── Contract ───────────────────────────────────────────────────────────────

// Message is one delivered queue entry. ID identifies it for acking.
type Message struct {
	ID         int64
	Topic      string
	Key        string
	Payload    []byte
	Deliveries int
}

// Publisher appends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Consumer claims messages from a set of topics and acknowledges them when
// processing is done. An unacked message is redelivered after its
// visibility window lapses.
type Consumer interface {
	// Receive blocks until a message is available on any subscribed topic
	// or the context is done.
	Receive(ctx context.Context) (*Message, error)
	Ack(ctx context.Context, id int64) error
}

// ─── Defaults ───────────────────────────────────────────────────────────────

const (
	// DefaultVisibility is how long a claimed message stays hidden.
	DefaultVisibility = 5 * time.Minute

	// DefaultPollInterval is the consumer's idle polling cadence.
	DefaultPollInterval = time.Second
)
