// Package objectstore uploads rendered analysis artifacts to an HTTP blob
// store so callers can fetch heatmaps and overlays by URL.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// Store PUTs artifact files under <endpoint>/artifacts/<taskID>/<name> and
// returns the public URL for each. A zero-endpoint store is a no-op; the
// worker then keeps artifacts local only.
type Store struct {
	endpoint  string
	publicURL string
	client    *http.Client
}

// New creates a store against the given endpoint. publicURL is the base
// returned to callers; when empty the endpoint doubles as the public base.
func New(endpoint, publicURL string) *Store {
	if publicURL == "" {
		publicURL = endpoint
	}
	return &Store{
		endpoint:  endpoint,
		publicURL: publicURL,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether uploads will actually go anywhere.
func (s *Store) Configured() bool { return s.endpoint != "" }

// Upload stores one local file under the task's artifact prefix and returns
// its public URL.
func (s *Store) Upload(ctx context.Context, taskID, localPath string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("%w: no object store endpoint", domain.ErrUploadFailed)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrUploadFailed, localPath, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", domain.ErrUploadFailed, localPath, err)
	}

	name := filepath.Base(localPath)
	key := path.Join("artifacts", taskID, name)
	req, err := http.NewRequestWithContext(ctx, "PUT", s.endpoint+"/"+key, f)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrUploadFailed, err)
	}
	req.ContentLength = stat.Size()
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d for %s", domain.ErrUploadFailed, resp.StatusCode, key)
	}
	return s.publicURL + "/" + key, nil
}
