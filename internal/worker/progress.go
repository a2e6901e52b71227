package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// ─── Shared State ───────────────────────────────────────────────────────────

// KV is the expiring key-value store shared with progress readers and other
// workers. Satisfied by *sqlite.DB.
type KV interface {
	PutKV(key, value string, ttl time.Duration) error
	GetKV(key string) (string, bool, error)
	ExistsKV(key string) (bool, error)
}

const (
	progressKeyPrefix = "analysis:progress:"

	// ProgressTTL bounds how long a stale progress record lingers.
	ProgressTTL = time.Hour
)

// ProgressTracker records per-task progress in the shared store. Each update
// overwrites the previous record and refreshes the TTL.
type ProgressTracker struct {
	kv  KV
	now func() time.Time
}

// NewProgressTracker creates a tracker over the shared store.
func NewProgressTracker(kv KV) *ProgressTracker {
	return &ProgressTracker{kv: kv, now: time.Now}
}

// Update writes the task's current progress. Failures are returned but
// callers treat them as non-fatal: a lost progress update must not fail the
// task.
func (p *ProgressTracker) Update(taskID string, percent int, message string) error {
	rec := domain.ProgressRecord{
		TaskID:    taskID,
		Percent:   percent,
		Message:   message,
		Timestamp: p.now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := p.kv.PutKV(progressKeyPrefix+taskID, string(raw), ProgressTTL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnhealthy, err)
	}
	return nil
}

// Fetch reads the live progress record for a task. The second return is
// false when no record exists or it expired.
func (p *ProgressTracker) Fetch(taskID string) (*domain.ProgressRecord, bool, error) {
	raw, ok, err := p.kv.GetKV(progressKeyPrefix + taskID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrStoreUnhealthy, err)
	}
	if !ok {
		return nil, false, nil
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("decode progress record: %w", err)
	}
	return &rec, true, nil
}
