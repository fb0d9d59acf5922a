// Package llm is the client for the hosted text-completion service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one entry of the prompt exchange sent to the hosted model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request bounds a single completion call. Temperature and MaxTokens are
// fixed per call site, not user-tunable.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Client is the narrow surface the rest of the service depends on.
// Tests substitute fakes; production uses HTTPClient.
type Client interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}

// HTTPClient calls the hosted model over its REST surface.
type HTTPClient struct {
	endpoint   string
	token      string
	model      string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the given completion endpoint.
// The model identifier is fixed for the lifetime of the client.
func NewHTTPClient(endpoint, token, model string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		token:    token,
		model:    model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type completionResponse struct {
	Result struct {
		// Response is whatever the model produced: a plain string, or a
		// structured value when the prompt asked for JSON. No other shape
		// is guaranteed by the service.
		Response json.RawMessage `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Complete sends one completion request and returns the raw reply.
// Callers normalize the reply via the Reply accessors before use.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (Reply, error) {
	payload := completionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("execute completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("completion failed: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Reply{}, fmt.Errorf("decode completion response: %w", err)
	}
	if !decoded.Success && len(decoded.Errors) > 0 {
		return Reply{}, fmt.Errorf("completion rejected: %s", decoded.Errors[0].Message)
	}
	if len(decoded.Result.Response) == 0 {
		return Reply{}, ErrEmptyReply
	}

	return Reply{Raw: decoded.Result.Response}, nil
}
