// Package worker consumes analysis tasks and drives them through the
// pipeline: dedup check, input resolution, detector dispatch, artifact
// publishing, result publishing, finalization.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/classify"
	"github.com/LiWinston/DeepFake-Forensic/internal/detect"
	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/metrics"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
)

// ─── Dispatcher ─────────────────────────────────────────────────────────────

// ImageClassifier labels an image through the external classifier service.
// Satisfied by *classify.Client.
type ImageClassifier interface {
	Classify(ctx context.Context, imageURL, model string) (*classify.Prediction, error)
}

// Dispatcher pulls tasks from the queue and processes them strictly
// sequentially. Per-task failures become failure results; they never stop
// the consume loop.
type Dispatcher struct {
	consumer   queue.Consumer
	results    *ResultPublisher
	progress   *ProgressTracker
	dedup      *DedupLedger
	artifacts  *ArtifactPublisher
	detectors  map[domain.TaskType]detect.Detector
	classifier ImageClassifier
	workDir    string
}

// NewDispatcher wires the pipeline. classifier may be nil when no
// classification service is configured.
func NewDispatcher(
	consumer queue.Consumer,
	results *ResultPublisher,
	progress *ProgressTracker,
	dedup *DedupLedger,
	artifacts *ArtifactPublisher,
	detectors map[domain.TaskType]detect.Detector,
	classifier ImageClassifier,
	workDir string,
) *Dispatcher {
	return &Dispatcher{
		consumer:   consumer,
		results:    results,
		progress:   progress,
		dedup:      dedup,
		artifacts:  artifacts,
		detectors:  detectors,
		classifier: classifier,
		workDir:    workDir,
	}
}

// Run consumes until the context is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Printf("[worker] consuming analysis tasks")
	for {
		msg, err := d.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[worker] receive failed: %v", err)
			continue
		}
		if msg.Deliveries > 1 {
			metrics.QueueRedeliveries.WithLabelValues(msg.Topic).Inc()
		}

		d.Handle(ctx, msg.Payload)

		if err := d.consumer.Ack(ctx, msg.ID); err != nil {
			log.Printf("[worker] ack %d failed: %v", msg.ID, err)
		}
	}
}

// Handle drives one raw task message through the pipeline. It never returns
// an error: every failure is converted to a failure result or, when the
// message is not even parseable, logged and dropped.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) {
	var task domain.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		log.Printf("[worker] unparseable task message dropped: %v", err)
		return
	}
	id := task.ID()

	// A marked id is a redelivered duplicate: drop with no progress write
	// and no result.
	seen, err := d.dedup.Seen(id)
	if err != nil {
		log.Printf("[worker] dedup check for %s failed, processing anyway: %v", id, err)
	}
	if seen {
		log.Printf("[worker] task %s already processed, dropping", id)
		metrics.TasksSkipped.Inc()
		return
	}

	metrics.TasksActive.Inc()
	defer metrics.TasksActive.Dec()
	started := time.Now()
	log.Printf("[worker] task %s (%s) started", id, task.Type)

	data, procErr := d.process(ctx, task, id)
	if procErr != nil {
		log.Printf("[worker] task %s failed: %v", id, procErr)
		metrics.TasksFailed.WithLabelValues(string(task.Type), "error").Inc()
		if err := d.results.Failure(ctx, id, procErr, payload); err != nil {
			log.Printf("[worker] failure result for %s not published: %v", id, err)
		}
		d.finalize(id, fmt.Sprintf("Failed: %v", procErr))
		return
	}

	if err := d.results.Success(ctx, id, data); err != nil {
		log.Printf("[worker] result for %s not published: %v", id, err)
		metrics.TasksFailed.WithLabelValues(string(task.Type), "publish").Inc()
		d.finalize(id, fmt.Sprintf("Failed: %v", err))
		return
	}
	metrics.TasksCompleted.WithLabelValues(string(task.Type)).Inc()
	log.Printf("[worker] task %s completed in %s", id, time.Since(started).Round(time.Millisecond))
	d.finalize(id, "Completed")
}

// finalize writes the dedup marker and the terminal progress record. Both
// writes are best-effort.
func (d *Dispatcher) finalize(id, message string) {
	if err := d.dedup.Mark(id); err != nil {
		log.Printf("[worker] dedup marker for %s not written: %v", id, err)
	}
	if err := d.progress.Update(id, 100, message); err != nil {
		log.Printf("[worker] final progress for %s not written: %v", id, err)
	}
}

// process routes a task to its handler and returns the result payload.
func (d *Dispatcher) process(ctx context.Context, task domain.Task, id string) (*domain.ResultData, error) {
	if !task.Type.Known() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTaskType, task.Type)
	}
	d.reportProgress(id, 5, "Task received")

	if task.Type == domain.TaskImageClassify {
		return d.processImage(ctx, task, id)
	}
	return d.processVideo(ctx, task, id)
}

func (d *Dispatcher) processImage(ctx context.Context, task domain.Task, id string) (*domain.ResultData, error) {
	if d.classifier == nil {
		return nil, domain.ErrClassifierOffline
	}
	d.reportProgress(id, 50, "Running inference")
	pred, err := d.classifier.Classify(ctx, task.ImageURL, task.Model)
	if err != nil {
		return nil, err
	}
	d.reportProgress(id, 95, "Inference completed")
	return &domain.ResultData{
		TaskID: id,
		Type:   task.Type,
		Model:  task.Model,
		Result: pred,
	}, nil
}

func (d *Dispatcher) processVideo(ctx context.Context, task domain.Task, id string) (*domain.ResultData, error) {
	detector, ok := d.detectors[task.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTaskType, task.Type)
	}

	d.reportProgress(id, 10, "Resolving input video")
	taskDir := filepath.Join(d.workDir, id)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, fmt.Errorf("create task dir: %w", err)
	}
	videoPath, err := resolveInput(ctx, task, taskDir)
	if err != nil {
		return nil, err
	}

	req := detect.Request{
		VideoPath:    videoPath,
		WorkDir:      taskDir,
		SampleFrames: task.SampleFrames,
		SampleRate:   task.SampleRate,
		NoiseSigma:   task.NoiseSigma,
		Sensitivity:  task.Sensitivity,
		MinMatches:   task.MinMatches,
		Progress: func(percent int, message string) {
			d.reportProgress(id, percent, message)
		},
	}
	started := time.Now()
	analysis, err := detector.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.AnalysisDuration.WithLabelValues(analysis.Method).Observe(time.Since(started).Seconds())
	if scored, ok := analysis.Report.(detect.Scored); ok {
		score, manipulated := scored.Anomaly()
		metrics.AnomalyScore.WithLabelValues(analysis.Method).Observe(score)
		if manipulated {
			metrics.ManipulationsFlagged.WithLabelValues(analysis.Method).Inc()
		}
	}

	d.reportProgress(id, 95, "Publishing artifacts")
	artifacts := d.artifacts.PublishAll(ctx, id, analysis.Artifacts)

	return &domain.ResultData{
		TaskID:    id,
		Type:      task.Type,
		Method:    analysis.Method,
		Artifacts: artifacts,
		Result:    analysis.Report,
	}, nil
}

// reportProgress writes a progress update, logging but otherwise ignoring
// store failures.
func (d *Dispatcher) reportProgress(id string, percent int, message string) {
	if err := d.progress.Update(id, percent, message); err != nil {
		log.Printf("[worker] progress %d%% for %s not written: %v", percent, id, err)
	}
}
