package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	maxRetries    = 3
	backoffBase   = time.Second
	defaultLimit  = 5
	clientTimeout = 30 * time.Second
)

// Client wraps a pooled http.Client with retry, exponential backoff and a
// per-scraper semaphore. The semaphore is a deliberate throttle against
// upstream bot detection, not a correctness requirement.
type Client struct {
	http  *http.Client
	sem   *semaphore.Weighted
	label string
}

type Options struct {
	// Timeout for a single request; zero means 30s.
	Timeout time.Duration
	// MaxConcurrent bounds in-flight requests; zero means 5.
	MaxConcurrent int64
	// Label identifies the owning scraper in logs.
	Label string
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = clientTimeout
	}
	if opts.MaxConcurrent == 0 {
		opts.MaxConcurrent = defaultLimit
	}
	return &Client{
		http:  &http.Client{Timeout: opts.Timeout},
		sem:   semaphore.NewWeighted(opts.MaxConcurrent),
		label: opts.Label,
	}
}

// Get issues a GET with retry and returns the response body.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// GetJSON issues a GET and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, headers http.Header, v any) error {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// PostJSON issues a POST with a JSON body and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, headers http.Header, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Content-Type", "application/json")
	return c.do(ctx, http.MethodPost, url, headers, body)
}

// do runs the retry loop: transport errors and 5xx are retried with
// exponential backoff (1s, 2s, 4s); other non-2xx statuses fail at once.
func (c *Client) do(ctx context.Context, method, url string, headers http.Header, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, retryable, err := c.once(ctx, method, url, headers, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		wait := backoffBase * time.Duration(1<<(attempt-1))
		log.Printf("[%s] request falhou (tentativa %d/%d): %v – aguardando %s", c.label, attempt, maxRetries, err, wait)
		if attempt < maxRetries {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method, url string, headers http.Header, body []byte) ([]byte, bool, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	defer c.sem.Release(1)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("status %d em %s", resp.StatusCode, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("status %d em %s", resp.StatusCode, url)
	}
	return data, false, nil
}
