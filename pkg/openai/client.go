package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultAPIURL is the OpenAI chat-completions endpoint.
const DefaultAPIURL = "https://api.openai.com/v1/chat/completions"

// ErrTimeout indicates the upstream model call exceeded its deadline. Callers
// distinguish it from other upstream failures to offer a retry affordance.
var ErrTimeout = errors.New("model request timed out")

// APIError is a non-2xx upstream response. The raw body is kept so the proxy
// can pass the vendor's own error payload through to its caller.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model endpoint returned status %d", e.Status)
}

// Client issues chat-completions requests against one endpoint URL.
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given endpoint; empty selects the OpenAI
// default. Per-call deadlines come from the caller, so the underlying
// http.Client carries no timeout of its own.
func NewClient(apiURL string, logger *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// ChatCompletion sends one completions request authorized with apiKey and
// bounded by timeout. On success it returns the parsed response along with the
// raw body; a non-2xx response surfaces as *APIError and an exceeded deadline
// as ErrTimeout.
func (c *Client) ChatCompletion(ctx context.Context, apiKey string, chatReq *ChatRequest, timeout time.Duration) (*ChatResponse, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("creating model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, nil, fmt.Errorf("sending model request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading model response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("model endpoint error", "status", resp.StatusCode, "model", chatReq.Model)
		return nil, nil, &APIError{Status: resp.StatusCode, Body: body}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, nil, fmt.Errorf("parsing model response: %w", err)
	}

	c.logger.Debug("model call done",
		"model", chatResp.Model,
		"duration", time.Since(start),
		"tool_calls", len(chatResp.ToolCalls()))
	return &chatResp, body, nil
}
