package worker

import (
	"context"
	"log"

	"github.com/LiWinston/DeepFake-Forensic/internal/infra/metrics"
)

// ─── Artifact Publishing ────────────────────────────────────────────────────

// Uploader pushes one artifact file to the object store. Satisfied by
// *objectstore.Store.
type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, taskID, localPath string) (string, error)
}

// ArtifactPublisher rewrites artifact paths to public URLs, best-effort:
// with no store configured every artifact keeps its local path, and an
// individual upload failure leaves just that artifact local while the rest
// still upload.
type ArtifactPublisher struct {
	store Uploader
}

// NewArtifactPublisher creates a publisher. store may be nil.
func NewArtifactPublisher(store Uploader) *ArtifactPublisher {
	return &ArtifactPublisher{store: store}
}

// PublishAll uploads each artifact and returns the map with uploaded paths
// rewritten to URLs.
func (p *ArtifactPublisher) PublishAll(ctx context.Context, taskID string, artifacts map[string]string) map[string]string {
	if len(artifacts) == 0 {
		return artifacts
	}
	if p.store == nil || !p.store.Configured() {
		return artifacts
	}

	published := make(map[string]string, len(artifacts))
	for name, localPath := range artifacts {
		url, err := p.store.Upload(ctx, taskID, localPath)
		if err != nil {
			log.Printf("[worker] artifact %s upload failed for task %s: %v", name, taskID, err)
			metrics.ArtifactUploads.WithLabelValues("error").Inc()
			published[name] = localPath
			continue
		}
		metrics.ArtifactUploads.WithLabelValues("ok").Inc()
		published[name] = url
	}
	return published
}
