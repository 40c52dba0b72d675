package outboxrest

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

	"github.com/corray333/task-bridge/internal/service/models/outboxevent"
)

// Client talks to one engine's outbox REST endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an outbox client for the given base URL.
func NewClient(baseURL string) *Client {
	timeout := viper.GetDuration("sync.http_timeout")
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchEvents retrieves the retrievable events of the given kind.
func (c *Client) FetchEvents(ctx context.Context, kind outboxevent.Kind) ([]outboxevent.Event, error) {
	requestURL := fmt.Sprintf("%s/events?type=%s", c.baseURL, url.QueryEscape(string(kind)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("outbox returned status %d: %s", resp.StatusCode, string(body))
	}

	var events []outboxevent.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}

	return events, nil
}

// MarkConsumed removes the event from the outbox. A 404 means the event is
// already gone and counts as success.
func (c *Client) MarkConsumed(ctx context.Context, id int64) error {
	requestURL := fmt.Sprintf("%s/events/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create consume request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to mark event %d consumed: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("outbox returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// failureBody is the acknowledgement payload for a failed attempt.
type failureBody struct {
	RemainingRetries int        `json:"remainingRetries"`
	BlockedUntil     *time.Time `json:"blockedUntil"`
	Error            string     `json:"error"`
}

// MarkFailed writes the decremented retry budget, the computed backoff
// window and the error text back into the outbox record.
func (c *Client) MarkFailed(ctx context.Context, id int64, remainingRetries int, blockedUntil *time.Time, cause string) error {
	payload, err := json.Marshal(failureBody{
		RemainingRetries: remainingRetries,
		BlockedUntil:     blockedUntil,
		Error:            cause,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal failure body: %w", err)
	}

	requestURL := fmt.Sprintf("%s/events/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, requestURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create failure request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to mark event %d failed: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("outbox returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
}
