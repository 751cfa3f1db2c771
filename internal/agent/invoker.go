package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultMaxRetries is the number of retry attempts for transient tool
// failures (5xx responses and transport errors).
const defaultMaxRetries = 2

// ToolRequest is the body POSTed to a tool endpoint.
type ToolRequest struct {
	UserID    string          `json:"user_id"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResponse is the structured result every tool endpoint returns.
type ToolResponse struct {
	Status    string          `json:"status"` // "success" or "error"
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// Invoker calls task tools over HTTP against the backend's /tools
// surface. Validation failures and not-found responses are returned as
// structured errors without retrying; server errors and transport
// failures are retried with exponential backoff.
type Invoker struct {
	endpoint   string // base URL, e.g. http://localhost:8080
	client     *http.Client
	maxRetries int
}

// NewInvoker creates a tool invoker for the given base endpoint.
func NewInvoker(endpoint string, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Invoker{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		maxRetries: defaultMaxRetries,
	}
}

// Invoke calls the named tool for userID and returns the raw JSON
// response body. The returned payload always carries the
// status/result/error envelope, so the model sees tool failures as
// data rather than as transport errors.
func (inv *Invoker) Invoke(
	ctx context.Context,
	name, userID string,
	arguments json.RawMessage,
) (json.RawMessage, error) {
	reqBody, err := json.Marshal(ToolRequest{UserID: userID, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("marshaling tool request: %w", err)
	}

	url := fmt.Sprintf("%s/tools/%s", inv.endpoint, name)

	var lastErr error
	for attempt := 0; attempt <= inv.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, status, err := inv.post(ctx, url, reqBody)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusBadRequest:
			return toolError("validation_error", errorDetail(body, "invalid parameters")), nil
		case status == http.StatusNotFound:
			return toolError("not_found", "task not found"), nil
		case status >= 500:
			lastErr = fmt.Errorf("tool %s returned HTTP %d", name, status)
			continue
		default:
			lastErr = fmt.Errorf("tool %s returned unexpected HTTP %d", name, status)
			continue
		}
	}

	return nil, fmt.Errorf("invoking tool %s after %d attempts: %w",
		name, inv.maxRetries+1, lastErr)
}

func (inv *Invoker) post(ctx context.Context, url string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("creating tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling tool endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading tool response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// errorDetail pulls an error message out of a response body, falling
// back to a default.
func errorDetail(body []byte, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}

func toolError(code, msg string) json.RawMessage {
	payload, _ := json.Marshal(ToolResponse{
		Status:    "error",
		Error:     msg,
		ErrorCode: code,
	})
	return payload
}
