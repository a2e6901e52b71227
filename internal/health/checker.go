// Package health provides periodic health checks for the forensic worker.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/infra/queue"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/sqlite"
)

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// backlogLimit is the pending-message count above which a topic is
// considered unhealthy: the consumer is not keeping up.
const backlogLimit = 1000

// NewChecker creates a health checker with the standard checks: shared
// store reachability, work directory sanity, and queue backlog.
func NewChecker(db *sqlite.DB, workDir string) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "store",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
			},
			{
				Name: "work_dir",
				CheckFn: func(ctx context.Context) error {
					return checkWorkDir(workDir)
				},
			},
			{
				Name: "queue_backlog",
				CheckFn: func(ctx context.Context) error {
					return checkBacklog(db)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkWorkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Created lazily on the first task
		}
		return fmt.Errorf("check work dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("work path %s is not a directory", dir)
	}
	return nil
}

func checkBacklog(db *sqlite.DB) error {
	for _, topic := range queue.TaskTopics {
		n, err := db.PendingCount(topic)
		if err != nil {
			return fmt.Errorf("count %s: %w", topic, err)
		}
		if n > backlogLimit {
			return fmt.Errorf("topic %s backlog %d exceeds %d", topic, n, backlogLimit)
		}
	}
	return nil
}
