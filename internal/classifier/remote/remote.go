// Package remote implements triage.Classifier against a model-serving
// sidecar over HTTP. The artifact behind the endpoint is opaque: the client
// only assumes a named-feature predict call returning integer class labels.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// riskClasses is the cardinality of the risk label the adapter expects.
// A model trained with a different class count would be silently misread,
// so the handshake rejects it up front.
const riskClasses = 3

// Client talks to a model-serving endpoint.
type Client struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
}

// ModelInfo is the metadata the model server reports at startup.
type ModelInfo struct {
	Name    string `json:"name"`
	Classes int    `json:"classes"`
}

// predictRequest is a feature table: one feature map per record.
type predictRequest struct {
	Records []map[string]float64 `json:"records"`
}

type predictResponse struct {
	Labels []int `json:"labels"`
}

// New performs the one-time startup handshake against the model server and
// returns a ready client. A handshake failure means the artifact is missing
// or unusable; the caller degrades to permanent rule-based mode.
func New(ctx context.Context, baseURL string) (*Client, error) {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: httpTimeout},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/model", nil)
	if err != nil {
		return nil, fmt.Errorf("create handshake request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model handshake: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read handshake response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model handshake: status %d: %s", resp.StatusCode, string(body))
	}

	var info ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode model info: %w", err)
	}
	if info.Name == "" {
		return nil, fmt.Errorf("model handshake: empty model name")
	}
	if info.Classes != riskClasses {
		return nil, fmt.Errorf("model handshake: model %q reports %d classes, want %d", info.Name, info.Classes, riskClasses)
	}

	c.modelName = info.Name
	return c, nil
}

// ModelName returns the name reported by the model server.
func (c *Client) ModelName() string {
	return c.modelName
}

// Predict implements triage.Classifier for a single record.
func (c *Client) Predict(ctx context.Context, features map[string]float64) (int, error) {
	body, err := json.Marshal(predictRequest{Records: []map[string]float64{features}})
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send predict request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read predict response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predict: status %d: %s", resp.StatusCode, string(respBody))
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return 0, fmt.Errorf("decode predict response: %w", err)
	}
	if len(pr.Labels) != 1 {
		return 0, fmt.Errorf("predict: expected 1 label, got %d", len(pr.Labels))
	}

	return pr.Labels[0], nil
}
