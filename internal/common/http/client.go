// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrRequestTimeout = errors.New("REQUEST_TIMEOUT")
	ErrRequestFailed  = errors.New("REQUEST_FAILED")
)

// Client is a small JSON-over-HTTP client with bounded retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
	headers    map[string]string
}

func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		headers:    map[string]string{},
	}
}

// WithHeader sets a header sent on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.headers[key] = value
	return c
}

// PostJSON sends body to url and decodes a 200 response into out. Non-200 answers and
// transport errors are retried with exponential backoff; a done context stops the loop.
func (c *Client) PostJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrRequestTimeout, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			if resp != nil {
				resp.Body.Close()
			}
			cause := ctx.Err()
			if cause == nil {
				cause = err
			}
			return fmt.Errorf("%w: %w", ErrRequestTimeout, cause)
		}
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode error: %v", ErrRequestFailed, err)
		}
		return nil
	}

	return fmt.Errorf("%w: %v", ErrRequestFailed, lastErr)
}
