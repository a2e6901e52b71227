package worker

import (
	"fmt"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// ─── Deduplication Ledger ───────────────────────────────────────────────────

const (
	processedKeyPrefix = "analysis:processed:"

	// DedupTTL bounds how long a processed marker suppresses redelivery.
	DedupTTL = 24 * time.Hour
)

// DedupLedger records which task ids have already produced a terminal
// result. A redelivered message whose id is marked is dropped before any
// work or progress write happens.
//
// The marker is written after the result publish, not atomically with it: a
// crash in between can cause one duplicate result on redelivery. Downstream
// consumers treat results as idempotent by task id.
type DedupLedger struct {
	kv KV
}

// NewDedupLedger creates a ledger over the shared store.
func NewDedupLedger(kv KV) *DedupLedger {
	return &DedupLedger{kv: kv}
}

// Seen reports whether a live marker exists for the task id.
func (d *DedupLedger) Seen(taskID string) (bool, error) {
	ok, err := d.kv.ExistsKV(processedKeyPrefix + taskID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnhealthy, err)
	}
	return ok, nil
}

// Mark records the task id as processed.
func (d *DedupLedger) Mark(taskID string) error {
	if err := d.kv.PutKV(processedKeyPrefix+taskID, "1", DedupTTL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnhealthy, err)
	}
	return nil
}
