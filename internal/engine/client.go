package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/job"
	"github.com/vk/latentflow/internal/wire"
)

// Client talks to the engine's HTTP surface. It implements job.Submitter.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request the client makes.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient swaps the underlying http.Client. Tests inject one
// aimed at an httptest server.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the engine at baseURL. The generated
// client id tags submissions so the engine can route stream events back
// to this session.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: uuid.NewString(),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID returns the session id sent with every submission.
func (c *Client) ClientID() string { return c.clientID }

type submitRequest struct {
	Prompt   wire.ExecutionGraph `json:"prompt"`
	ClientID string              `json:"client_id"`
}

type submitResponse struct {
	PromptID string `json:"prompt_id"`
}

// SubmitGraph posts the execution graph and returns the engine-assigned
// job id.
func (c *Client) SubmitGraph(ctx context.Context, graph wire.ExecutionGraph) (string, error) {
	logger := ctxlog.FromContext(ctx)

	body, err := json.Marshal(submitRequest{Prompt: graph, ClientID: c.clientID})
	if err != nil {
		return "", fmt.Errorf("failed to encode execution graph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit execution graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("engine rejected submission: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if parsed.PromptID == "" {
		return "", fmt.Errorf("engine returned no job id")
	}

	logger.Debug("Execution graph accepted", "jobId", parsed.PromptID)
	return parsed.PromptID, nil
}

// historyNodeOutput is one node's artifact lists in a history entry.
type historyNodeOutput struct {
	Images []job.ArtifactRef `json:"images"`
	Gifs   []job.ArtifactRef `json:"gifs"`
}

type historyEntry struct {
	Outputs map[string]historyNodeOutput `json:"outputs"`
}

// Outputs queries the completed-job history for the given job and
// flattens every artifact it finds. An unknown or not-yet-materialized
// job yields an empty list, not an error.
func (c *Client) Outputs(ctx context.Context, jobID string) ([]job.ArtifactRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create history request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("history lookup failed: %s", resp.Status)
	}

	var parsed map[string]historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	var out []job.ArtifactRef
	entry, ok := parsed[jobID]
	if !ok {
		return nil, nil
	}
	for _, nodeOut := range entry.Outputs {
		out = append(out, nodeOut.Images...)
		out = append(out, nodeOut.Gifs...)
	}
	return out, nil
}

// Interrupt asks the engine to stop the job. Best-effort by contract; the
// caller decides whether a failure matters.
func (c *Client) Interrupt(ctx context.Context, jobID string) error {
	body, err := json.Marshal(map[string]string{"prompt_id": jobID})
	if err != nil {
		return fmt.Errorf("failed to encode interrupt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interrupt", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create interrupt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send interrupt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("interrupt rejected: %s", resp.Status)
	}
	return nil
}
