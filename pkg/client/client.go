// Package client is a Go client for the customer records API. Requests that
// fail with a retryable status (408, 429, 5xx) or a transport error are retried
// with exponential backoff, bounded at three retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout        = 10 * time.Second
	bulkCreateTimeout     = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
)

// ApiError is the typed failure returned by every client call. IsRetryable
// reflects the classification of the final attempt.
type ApiError struct {
	Status      int
	Code        string
	Message     string
	IsRetryable bool
	Errors      map[string]string
}

func (e *ApiError) Error() string {
	if e.Status == 0 {
		return "request failed: " + e.Message
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     uint64
	initialBackoff time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithInitialBackoff overrides the first retry delay. Subsequent delays double.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) { c.initialBackoff = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		maxRetries:     defaultMaxRetries,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, timeout time.Duration, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	url := c.baseURL + path

	operation := func() error {
		err := c.attempt(ctx, method, url, timeout, payload, out)
		if err == nil {
			return nil
		}
		var apiErr *ApiError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = 1 * time.Minute
	bo.MaxElapsedTime = 0

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
}

// attempt performs a single request. The timeout bounds this attempt only,
// backoff waits between attempts do not count against it.
func (c *Client) attempt(ctx context.Context, method, url string, timeout time.Duration, payload []byte, out interface{}) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		return &ApiError{Message: err.Error(), IsRetryable: false}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// no response received, the request may never have reached the server
		return &ApiError{Message: err.Error(), IsRetryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ApiError{
				Status:      resp.StatusCode,
				Message:     "failed to decode response: " + err.Error(),
				IsRetryable: false,
			}
		}
	}
	return nil
}

func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

func errorFromResponse(resp *http.Response) *ApiError {
	apiErr := &ApiError{
		Status:      resp.StatusCode,
		IsRetryable: retryableStatus(resp.StatusCode),
	}

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Errors = envelope.Error.Errors
		return apiErr
	}

	apiErr.Message = fallbackMessage(resp.StatusCode)
	return apiErr
}

func fallbackMessage(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "the requested resource was not found"
	case status == http.StatusConflict:
		return "the request conflicts with existing data"
	case retryableStatus(status):
		return "the service is temporarily unavailable, please try again"
	case status >= 400 && status < 500:
		return "the request was invalid"
	default:
		return http.StatusText(status)
	}
}
