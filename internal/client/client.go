// Package client talks to the prediction service over HTTP.
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

	"github.com/smukkama/bike-demand/internal/protocol"
)

// ErrTransport marks failures where no HTTP response was obtained.
var ErrTransport = errors.New("prediction service unreachable")

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
	// Message is the service's "error" field, empty when none was sent.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service returned status %d: %s", e.StatusCode, e.Message)
}

// Client issues requests against a prediction service
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    *time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero means no timeout.
// It applies to a copy of the http.Client, never the one passed to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c
}

// Predict posts a typed request to /predict
func (c *Client) Predict(ctx context.Context, req protocol.PredictRequest) (*protocol.PredictResponse, error) {
	body, err := protocol.EncodeMessage(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.PredictRaw(ctx, body)
}

// PredictRaw posts an arbitrary body to /predict with a JSON content type
func (c *Client) PredictRaw(ctx context.Context, body []byte) (*protocol.PredictResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/predict", body)
	if err != nil {
		return nil, err
	}

	var resp protocol.PredictResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	return &resp, nil
}

// Health queries /health
func (c *Client) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp protocol.HealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp protocol.ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return data, nil
}
