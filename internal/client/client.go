// Package client is a thin HTTP client for the taskie backend API,
// used by `taskie login` and the TUI chat view.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

// Client handles bearer token authentication, JSON marshaling, and the
// backend's error envelope.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

// New creates a backend client. The baseURL is the server root
// (e.g. http://localhost:8080). Token and user ID may be empty for
// unauthenticated calls and set later via SetAuth.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetAuth attaches a bearer token and its user ID to subsequent calls.
func (c *Client) SetAuth(userID, token string) {
	c.userID = userID
	c.token = token
}

// UserID returns the authenticated user's ID, if any.
func (c *Client) UserID() string { return c.userID }

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Session is the authentication result from signin or signup.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Signin exchanges credentials for a session token.
func (c *Client) Signin(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetAuth(session.UserID, session.Token)
	return &session, nil
}

// Signup registers a new account and returns its session.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetAuth(session.UserID, session.Token)
	return &session, nil
}

// ChatReply is one chat turn's response.
type ChatReply struct {
	Status         string          `json:"status"`
	ConversationID string          `json:"conversation_id"`
	Messages       []model.Message `json:"messages"`
}

// Chat sends a message to the agent, continuing conversationID when it
// is non-empty.
func (c *Client) Chat(ctx context.Context, conversationID, message string) (*ChatReply, error) {
	var reply ChatReply
	err := c.do(ctx, http.MethodPost, "/api/"+c.userID+"/chat", map[string]string{
		"conversation_id": conversationID,
		"message":         message,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListTasks returns the user's tasks from the backend.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/"+c.userID+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	body, result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
