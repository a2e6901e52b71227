// Package classify calls the external image classification service. The
// dispatcher treats it as one more detector; the model inference itself
// lives behind an HTTP API.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
)

// Prediction is one classification outcome.
type Prediction struct {
	PredictedLabel string             `json:"predicted_label"`
	Confidence     float64            `json:"confidence"`
	Probabilities  map[string]float64 `json:"probabilities"`
}

// Client talks to the classifier service.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client against the classifier base URL. An empty URL yields
// an offline client; Classify then fails with ErrClassifierOffline.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Configured reports whether a classifier endpoint is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// Classify asks the service to label the image behind imageURL with the
// given model. An empty model lets the service pick its default.
func (c *Client) Classify(ctx context.Context, imageURL, model string) (*Prediction, error) {
	if !c.Configured() {
		return nil, domain.ErrClassifierOffline
	}
	if imageURL == "" {
		return nil, domain.ErrNoImageContent
	}

	body, err := json.Marshal(map[string]string{
		"imageUrl": imageURL,
		"model":    model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/ai/predict/image", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, model)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classifier HTTP %d: %s", resp.StatusCode, msg)
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &pred, nil
}
