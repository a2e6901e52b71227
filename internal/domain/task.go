// Package domain defines the analysis task types. A Task is a unit of
// forensic work that flows through the pipeline: consume, dedup check,
// resolve input, analyze, publish artifacts, finalize.
package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskType categorizes the kind of analysis to run.
type TaskType string

const (
	TaskOpticalFlow   TaskType = "OPTICAL_FLOW"
	TaskTemporal      TaskType = "TEMPORAL"
	TaskFrequency     TaskType = "FREQUENCY"
	TaskNoise         TaskType = "NOISE"
	TaskCopyMove      TaskType = "COPY_MOVE"
	TaskImageClassify TaskType = "IMAGE_CLASSIFY"
)

// KnownTaskTypes lists every type the dispatcher can route.
var KnownTaskTypes = []TaskType{
	TaskOpticalFlow, TaskTemporal, TaskFrequency,
	TaskNoise, TaskCopyMove, TaskImageClassify,
}

// Known reports whether t is one of the routable task types.
func (t TaskType) Known() bool {
	for _, k := range KnownTaskTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Task is a single analysis request consumed from the broker.
// Immutable once dispatched.
type Task struct {
	TaskID   string   `json:"taskId,omitempty"`
	FileMD5  string   `json:"fileMd5,omitempty"`
	Type     TaskType `json:"type"`
	Model    string   `json:"model,omitempty"`

	// Input source: a local path if the producer shares a filesystem with
	// the worker, otherwise a download URL.
	LocalPath string `json:"localPath,omitempty"`
	URL       string `json:"url,omitempty"`
	MinioURL  string `json:"minioUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`

	// Detector parameters. Zero values fall back to each detector's defaults.
	SampleFrames int     `json:"sampleFrames,omitempty"`
	SampleRate   int     `json:"sampleRate,omitempty"`
	NoiseSigma   float64 `json:"noiseSigma,omitempty"`
	Sensitivity  float64 `json:"sensitivity,omitempty"`
	MinMatches   int     `json:"minMatches,omitempty"`
}

// ID returns the canonical task identifier: the explicit taskId, then the
// content hash, then a hash of the raw message as a last resort so redelivery
// of an id-less message still dedups consistently.
func (t Task) ID() string {
	if t.TaskID != "" {
		return t.TaskID
	}
	if t.FileMD5 != "" {
		return t.FileMD5
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return uuid.NewString()
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// SourceURL returns the download URL for the task input, preferring the
// generic url field over the object-store one.
func (t Task) SourceURL() string {
	if t.URL != "" {
		return t.URL
	}
	return t.MinioURL
}

// ProgressRecord is one progress update, keyed by task id in the shared
// store and overwritten on every update.
type ProgressRecord struct {
	TaskID    string    `json:"task_id"`
	Percent   int       `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the terminal envelope published once per task id.
// Either Data is set (success) or Error+Task are (failure).
type Result struct {
	Success bool            `json:"success"`
	Data    *ResultData     `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Task    json.RawMessage `json:"task,omitempty"`
}

// ResultData carries the detector output for a completed task.
type ResultData struct {
	TaskID    string            `json:"taskId"`
	Type      TaskType          `json:"type"`
	Method    string            `json:"method,omitempty"`
	Model     string            `json:"model,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Result    any               `json:"result"`
}
