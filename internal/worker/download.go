package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/infra/metrics"
)

// ─── Input Resolution ───────────────────────────────────────────────────────

// resolveInput materializes a local video path for a task: the given local
// path when it exists, otherwise a fresh download from the task's URL into
// dir. Neither resolving is InputUnavailable.
func resolveInput(ctx context.Context, task domain.Task, dir string) (string, error) {
	if task.LocalPath != "" {
		if _, err := os.Stat(task.LocalPath); err == nil {
			return task.LocalPath, nil
		}
	}
	url := task.SourceURL()
	if url == "" {
		return "", domain.ErrInputUnavailable
	}
	local, err := downloadVideo(ctx, url, dir)
	if err != nil {
		return "", fmt.Errorf("%w: download: %v", domain.ErrInputUnavailable, err)
	}
	return local, nil
}

// downloadVideo streams the URL to a file in dir. Downloads to a temp name
// first, then renames, so a partial fetch never looks like a usable input.
func downloadVideo(ctx context.Context, url, dir string) (string, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	// No timeout: input videos can be large and the queue's visibility
	// window already bounds redelivery.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "input.mp4"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create input dir: %w", err)
	}
	tmpPath := filepath.Join(dir, ".download-"+name+".tmp")
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("download interrupted: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("finalize download: %w", err)
	}

	metrics.VideoDownloadDuration.Observe(time.Since(started).Seconds())
	return finalPath, nil
}
