package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LiWinston/DeepFake-Forensic/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())

	// Before any run there are no statuses; IsHealthy is vacuously true.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run")
	}
}

func TestChecker_WorkDirMissingIsFine(t *testing.T) {
	c := NewChecker(newTestDB(t), filepath.Join(t.TempDir(), "nonexistent"))
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "work_dir" && !s.Healthy {
			t.Errorf("missing work dir should be healthy (created lazily): %s", s.Error)
		}
	}
}

func TestChecker_WorkDirFileNotDir(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "work")
	os.WriteFile(workDir, []byte("not a dir"), 0644)

	c := NewChecker(newTestDB(t), workDir)
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "work_dir" && s.Healthy {
			t.Error("work_dir should fail when the path is a file")
		}
	}
}

func TestChecker_BacklogHealthyWhenEmpty(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "queue_backlog" && !s.Healthy {
			t.Errorf("empty queue should be healthy: %s", s.Error)
		}
	}
}

func TestChecker_FailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
			},
		},
	}
	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false with a failing check")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir())
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()
	if len(s1) > 0 {
		s1[0].Healthy = false
		if !s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
