// Package trainer talks to the external ML pipeline service that performs
// the actual retraining. The pipeline is opaque to this service: it is asked
// to retrain one model family and reports success or error plus evaluation
// metrics.
package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mkulimalink-monitor/monitor"
)

// Client is an HTTP client for the ML pipeline service
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new pipeline client
func NewClient(baseURL string) *Client {
	// Configure custom HTTP transport for connection pooling; retraining
	// runs are long, so the per-call context carries the timeout instead of
	// the client.
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport,
		},
	}
}

// trainRequest is the pipeline run request body
type trainRequest struct {
	Model string `json:"model"`
}

// trainResponse is the pipeline run response body
type trainResponse struct {
	Status  string             `json:"status"`
	Metrics map[string]float64 `json:"evaluation_results,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Train asks the pipeline service to retrain one model and blocks until the
// run finishes, the context expires, or the transport fails.
func (c *Client) Train(ctx context.Context, model monitor.Model) (monitor.TrainResult, error) {
	reqBody, err := json.Marshal(trainRequest{Model: string(model)})
	if err != nil {
		return monitor.TrainResult{}, fmt.Errorf("failed to marshal train request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pipeline/run", bytes.NewReader(reqBody))
	if err != nil {
		return monitor.TrainResult{}, fmt.Errorf("failed to create train request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return monitor.TrainResult{}, fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return monitor.TrainResult{}, fmt.Errorf("pipeline returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed trainResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return monitor.TrainResult{}, fmt.Errorf("failed to decode pipeline response: %w", err)
	}

	return monitor.TrainResult{
		Status:  parsed.Status,
		Metrics: parsed.Metrics,
		Error:   parsed.Error,
	}, nil
}
