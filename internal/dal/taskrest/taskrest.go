package taskrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/corray333/task-bridge/internal/service/models/backendtask"
)

// Client talks to the task-management backend's task service.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	permanentCodes map[string]struct{}
}

// NewClient creates a task-service client from configuration.
func NewClient() *Client {
	timeout := viper.GetDuration("taskservice.http_timeout")
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	codes := viper.GetStringSlice("taskservice.permanent_error_codes")
	if len(codes) == 0 {
		codes = []string{"UNKNOWN_DOMAIN"}
	}
	permanent := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		permanent[code] = struct{}{}
	}

	return &Client{
		baseURL: viper.GetString("taskservice.base_url"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		permanentCodes: permanent,
	}
}

// NewClientWithBaseURL creates a client against an explicit base URL,
// bypassing configuration. Used by tests.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// errorBody is the task service's error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Create creates a task and returns its backend id. A 409 maps to
// ErrDuplicate; a 422 maps to a ValidationError classified by its code.
func (c *Client) Create(ctx context.Context, task backendtask.Task) (string, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var created backendtask.Task
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return "", fmt.Errorf("failed to decode create response: %w", err)
		}
		return created.ID, nil
	case http.StatusConflict:
		return "", fmt.Errorf("external id %s: %w", task.ExternalID, ErrDuplicate)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return "", c.validationError(resp.Body)
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("task service returned status %d: %s", resp.StatusCode, string(body))
	}
}

// Complete transitions the task to COMPLETED. A 409 means the task is
// already terminal, which counts as success.
func (c *Client) Complete(ctx context.Context, id string) error {
	return c.transition(ctx, id, "complete")
}

// Cancel transitions the task to CANCELLED, with the same idempotency rules
// as Complete.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.transition(ctx, id, "cancel")
}

func (c *Client) transition(ctx context.Context, id, action string) error {
	requestURL := fmt.Sprintf("%s/tasks/%s/%s", c.baseURL, url.PathEscape(id), action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s task %s: %w", action, id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusConflict:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("task service returned status %d: %s", resp.StatusCode, string(body))
	}
}

// FindByExternalID returns the task with the given external id, or nil when
// none exists.
func (c *Client) FindByExternalID(ctx context.Context, externalID string) (*backendtask.Task, error) {
	requestURL := fmt.Sprintf("%s/tasks?external_id=%s", c.baseURL, url.QueryEscape(externalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query task by external id: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("task service returned status %d: %s", resp.StatusCode, string(body))
	}

	var tasks []backendtask.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	return &tasks[0], nil
}

// GetByID returns the full task including custom attributes.
func (c *Client) GetByID(ctx context.Context, id string) (*backendtask.Task, error) {
	requestURL := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var task backendtask.Task
		if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		return &task, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("task service returned status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *Client) validationError(body io.Reader) error {
	var envelope errorBody
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		envelope.Message = "unparseable validation response"
	}

	_, permanent := c.permanentCodes[envelope.Code]

	return &ValidationError{
		Code:      envelope.Code,
		Message:   envelope.Message,
		Permanent: permanent,
	}
}

func setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
}
