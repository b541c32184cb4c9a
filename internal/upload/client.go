package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
)

const maxAttempts = 3

// Client sends finished workouts to the sync server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient creates a client for the sync server at serverURL.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// statusError is a non-200 answer from the server.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sync failed (status %d): %s", e.code, e.body)
}

// SendWorkout POSTs one workout to the sync endpoint. Network errors and 5xx
// answers are retried up to 3 times with exponential backoff; 4xx answers
// fail immediately.
func (c *Client) SendWorkout(ctx context.Context, payload models.SyncPayload) (*models.SyncResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		res, err := c.post(ctx, data)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (*models.SyncResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/sync/workouts", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(body))}
	}

	var res models.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding sync result: %w", err)
	}
	return &res, nil
}
