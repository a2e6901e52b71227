package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Input errors
	ErrVideoUnreadable  = errors.New("video unreadable: cannot open or count frames")
	ErrInputUnavailable = errors.New("no usable local path or downloadable url")

	// Dispatch errors. The wording "Unknown task type" is part of the
	// published result contract and must not change.
	ErrUnknownTaskType = errors.New("Unknown task type")

	// Detector errors
	ErrInsufficientSamples = errors.New("too few statistic samples, anomaly detection skipped")
	ErrNoFrames            = errors.New("no frames could be decoded")

	// Publishing errors
	ErrUploadFailed   = errors.New("artifact upload failed")
	ErrPublishFailed  = errors.New("result publish failed")
	ErrStoreUnhealthy = errors.New("shared state store unavailable")

	// Classifier errors
	ErrModelNotFound     = errors.New("classifier model not found")
	ErrClassifierOffline = errors.New("classifier service unreachable")
	ErrNoImageContent    = errors.New("no image content provided")
)
