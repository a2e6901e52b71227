package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestUpload_PutsUnderTaskPrefix(t *testing.T) {
	var gotPath, gotBody, gotType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		gotPath = r.URL.Path
		gotBody = string(body)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	local := writeTempFile(t, "heatmap.png", "png-bytes")
	s := New(ts.URL, "")
	url, err := s.Upload(context.Background(), "task-42", local)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if gotPath != "/artifacts/task-42/heatmap.png" {
		t.Errorf("path = %s, want /artifacts/task-42/heatmap.png", gotPath)
	}
	if gotBody != "png-bytes" {
		t.Errorf("body = %q", gotBody)
	}
	if gotType != "image/png" {
		t.Errorf("content type = %q, want image/png", gotType)
	}
	if url != ts.URL+"/artifacts/task-42/heatmap.png" {
		t.Errorf("url = %s", url)
	}
}

func TestUpload_PublicURLOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	local := writeTempFile(t, "vis.png", "x")
	s := New(ts.URL, "https://cdn.example.com")
	url, err := s.Upload(context.Background(), "t1", local)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/artifacts/t1/vis.png" {
		t.Errorf("url = %s, want cdn base", url)
	}
}

func TestUpload_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer ts.Close()

	local := writeTempFile(t, "vis.png", "x")
	s := New(ts.URL, "")
	if _, err := s.Upload(context.Background(), "t1", local); !errors.Is(err, domain.ErrUploadFailed) {
		t.Errorf("err = %v, want ErrUploadFailed", err)
	}
}

func TestUpload_Unconfigured(t *testing.T) {
	s := New("", "")
	if s.Configured() {
		t.Error("empty endpoint should report unconfigured")
	}
	if _, err := s.Upload(context.Background(), "t1", "nope.png"); !errors.Is(err, domain.ErrUploadFailed) {
		t.Errorf("err = %v, want ErrUploadFailed", err)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	s := New("http://localhost:1", "")
	if _, err := s.Upload(context.Background(), "t1", "/does/not/exist.png"); !errors.Is(err, domain.ErrUploadFailed) {
		t.Errorf("err = %v, want ErrUploadFailed", err)
	}
}
