package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/detect"
	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeKV struct {
	entries map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{entries: make(map[string]string)} }

func (f *fakeKV) PutKV(key, value string, _ time.Duration) error {
	f.entries[key] = value
	return nil
}

func (f *fakeKV) GetKV(key string) (string, bool, error) {
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeKV) ExistsKV(key string) (bool, error) {
	_, ok := f.entries[key]
	return ok, nil
}

type published struct {
	Topic   string
	Key     string
	Payload []byte
}

type fakePublisher struct {
	messages []published
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	f.messages = append(f.messages, published{topic, key, payload})
	return nil
}

type stubReport struct {
	Score float64 `json:"anomaly_score"`
	Flag  bool    `json:"is_manipulated"`
}

func (r stubReport) Anomaly() (float64, bool) { return r.Score, r.Flag }

type fakeDetector struct {
	analysis *detect.Analysis
	err      error
	calls    int
}

func (f *fakeDetector) Analyze(_ context.Context, req detect.Request) (*detect.Analysis, error) {
	f.calls++
	req.Report(50, "halfway")
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type testPipeline struct {
	dispatcher *Dispatcher
	kv         *fakeKV
	publisher  *fakePublisher
	detector   *fakeDetector
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()
	kv := newFakeKV()
	pub := &fakePublisher{}
	det := &fakeDetector{analysis: &detect.Analysis{
		Method: "optical_flow",
		Report: stubReport{Score: 0.1},
	}}
	detectors := map[domain.TaskType]detect.Detector{
		domain.TaskOpticalFlow: det,
	}
	d := NewDispatcher(
		nil,
		NewResultPublisher(pub),
		NewProgressTracker(kv),
		NewDedupLedger(kv),
		NewArtifactPublisher(nil),
		detectors,
		nil,
		t.TempDir(),
	)
	return &testPipeline{dispatcher: d, kv: kv, publisher: pub, detector: det}
}

func localVideoTask(t *testing.T, taskType domain.TaskType, id string) []byte {
	t.Helper()
	video := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(video, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video stub: %v", err)
	}
	raw, err := json.Marshal(domain.Task{TaskID: id, Type: taskType, LocalPath: video})
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return raw
}

func decodeResult(t *testing.T, payload []byte) domain.Result {
	t.Helper()
	var r domain.Result
	if err := json.Unmarshal(payload, &r); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return r
}

// ─── Dispatcher Tests ───────────────────────────────────────────────────────

func TestDispatcher_CompletesTask(t *testing.T) {
	p := newTestPipeline(t)
	p.dispatcher.Handle(context.Background(), localVideoTask(t, domain.TaskOpticalFlow, "t1"))

	if len(p.publisher.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(p.publisher.messages))
	}
	msg := p.publisher.messages[0]
	if msg.Topic != "analysis-results" || msg.Key != "t1" {
		t.Errorf("published to (%s, %s), want (analysis-results, t1)", msg.Topic, msg.Key)
	}
	result := decodeResult(t, msg.Payload)
	if !result.Success || result.Data == nil {
		t.Fatalf("result = %+v, want success with data", result)
	}
	if result.Data.TaskID != "t1" || result.Data.Method != "optical_flow" {
		t.Errorf("data = %+v", result.Data)
	}

	// Terminal progress and dedup marker are both written.
	raw, ok := p.kv.entries["analysis:progress:t1"]
	if !ok {
		t.Fatal("no progress record written")
	}
	var rec domain.ProgressRecord
	json.Unmarshal([]byte(raw), &rec)
	if rec.Percent != 100 || rec.Message != "Completed" {
		t.Errorf("final progress = %+v, want 100 Completed", rec)
	}
	if _, ok := p.kv.entries["analysis:processed:t1"]; !ok {
		t.Error("no dedup marker written")
	}
}

func TestDispatcher_DuplicateDeliveryIsNoOp(t *testing.T) {
	p := newTestPipeline(t)
	payload := localVideoTask(t, domain.TaskOpticalFlow, "t1")

	p.dispatcher.Handle(context.Background(), payload)
	progressAfterFirst := p.kv.entries["analysis:progress:t1"]
	p.dispatcher.Handle(context.Background(), payload)

	if len(p.publisher.messages) != 1 {
		t.Errorf("published %d messages, want exactly 1 across both deliveries", len(p.publisher.messages))
	}
	if p.detector.calls != 1 {
		t.Errorf("detector ran %d times, want 1", p.detector.calls)
	}
	if p.kv.entries["analysis:progress:t1"] != progressAfterFirst {
		t.Error("second delivery must not touch the progress record")
	}
}

func TestDispatcher_UnknownTaskType(t *testing.T) {
	p := newTestPipeline(t)
	raw, _ := json.Marshal(map[string]string{"taskId": "t9", "type": "HOLOGRAM"})

	p.dispatcher.Handle(context.Background(), raw)

	if len(p.publisher.messages) != 1 {
		t.Fatalf("published %d messages, want 1 failure", len(p.publisher.messages))
	}
	result := decodeResult(t, p.publisher.messages[0].Payload)
	if result.Success {
		t.Fatal("unknown type must fail")
	}
	if !strings.Contains(result.Error, "Unknown task type") {
		t.Errorf("error = %q, want it to name the unknown task type", result.Error)
	}
	if len(result.Task) == 0 {
		t.Error("failure result should echo the original task")
	}

	var rec domain.ProgressRecord
	json.Unmarshal([]byte(p.kv.entries["analysis:progress:t9"]), &rec)
	if rec.Percent != 100 || !strings.HasPrefix(rec.Message, "Failed: ") {
		t.Errorf("final progress = %+v, want 100 Failed", rec)
	}
}

func TestDispatcher_InputUnavailable(t *testing.T) {
	p := newTestPipeline(t)
	raw, _ := json.Marshal(domain.Task{TaskID: "t2", Type: domain.TaskOpticalFlow})

	p.dispatcher.Handle(context.Background(), raw)

	result := decodeResult(t, p.publisher.messages[0].Payload)
	if result.Success {
		t.Fatal("task without input must fail")
	}
	if !strings.Contains(result.Error, "no usable local path") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestDispatcher_DetectorFailure(t *testing.T) {
	p := newTestPipeline(t)
	p.detector.err = errors.New("decode blew up")

	p.dispatcher.Handle(context.Background(), localVideoTask(t, domain.TaskOpticalFlow, "t3"))

	result := decodeResult(t, p.publisher.messages[0].Payload)
	if result.Success || !strings.Contains(result.Error, "decode blew up") {
		t.Errorf("result = %+v, want failure carrying the detector error", result)
	}
	// Failure still finalizes: marker plus terminal progress.
	if _, ok := p.kv.entries["analysis:processed:t3"]; !ok {
		t.Error("failed task should still write its dedup marker")
	}
}

func TestDispatcher_UnparseableMessageDropped(t *testing.T) {
	p := newTestPipeline(t)
	p.dispatcher.Handle(context.Background(), []byte("{not json"))
	if len(p.publisher.messages) != 0 {
		t.Errorf("published %d messages, want none for garbage input", len(p.publisher.messages))
	}
}

func TestDispatcher_ProgressFlowsFromDetector(t *testing.T) {
	p := newTestPipeline(t)
	p.dispatcher.Handle(context.Background(), localVideoTask(t, domain.TaskOpticalFlow, "t4"))

	// The fake detector reported 50% midway; the final record overwrote it.
	var rec domain.ProgressRecord
	json.Unmarshal([]byte(p.kv.entries["analysis:progress:t4"]), &rec)
	if rec.Percent != 100 {
		t.Errorf("final percent = %d, want 100", rec.Percent)
	}
}

// ─── Component Tests ────────────────────────────────────────────────────────

func TestProgressTracker_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	tracker := NewProgressTracker(kv)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	if err := tracker.Update("abc", 42, "Sampling frames"); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, ok, err := tracker.Fetch("abc")
	if err != nil || !ok {
		t.Fatalf("fetch: ok=%v err=%v", ok, err)
	}
	if rec.Percent != 42 || rec.Message != "Sampling frames" || !rec.Timestamp.Equal(base) {
		t.Errorf("record = %+v", rec)
	}

	if _, ok, _ := tracker.Fetch("missing"); ok {
		t.Error("missing task reported present")
	}
}

func TestDedupLedger_MarkAndSeen(t *testing.T) {
	ledger := NewDedupLedger(newFakeKV())
	if seen, _ := ledger.Seen("x"); seen {
		t.Error("unmarked id reported seen")
	}
	if err := ledger.Mark("x"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if seen, _ := ledger.Seen("x"); !seen {
		t.Error("marked id not reported seen")
	}
}

type fakeUploader struct {
	failOn string
}

func (f *fakeUploader) Configured() bool { return true }

func (f *fakeUploader) Upload(_ context.Context, taskID, localPath string) (string, error) {
	if filepath.Base(localPath) == f.failOn {
		return "", errors.New("store rejected it")
	}
	return "https://store.example.com/artifacts/" + taskID + "/" + filepath.Base(localPath), nil
}

func TestArtifactPublisher_BestEffort(t *testing.T) {
	p := NewArtifactPublisher(&fakeUploader{failOn: "bad.png"})
	artifacts := map[string]string{
		"heatmap": "/tmp/out/heatmap.png",
		"broken":  "/tmp/out/bad.png",
	}
	published := p.PublishAll(context.Background(), "t1", artifacts)

	if published["heatmap"] != "https://store.example.com/artifacts/t1/heatmap.png" {
		t.Errorf("heatmap = %s, want rewritten URL", published["heatmap"])
	}
	if published["broken"] != "/tmp/out/bad.png" {
		t.Errorf("broken = %s, failed upload should keep the local path", published["broken"])
	}
}

func TestArtifactPublisher_NoStoreKeepsLocalPaths(t *testing.T) {
	p := NewArtifactPublisher(nil)
	artifacts := map[string]string{"vis": "/tmp/vis.png"}
	published := p.PublishAll(context.Background(), "t1", artifacts)
	if published["vis"] != "/tmp/vis.png" {
		t.Errorf("vis = %s, want untouched local path", published["vis"])
	}
}
