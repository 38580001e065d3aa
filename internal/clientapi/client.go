// Package clientapi talks to the remote client service, which owns Client records.
// The car service never stores clients itself: every lookup goes over HTTP.
package clientapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/trentd187/service-car/internal/models"
)

// maxErrorBody bounds how much of an upstream error response is kept on StatusError.
const maxErrorBody = 4 * 1024

var (
	// ErrClientNotFound is returned when the client service has no client with the requested id.
	ErrClientNotFound = errors.New("client not found")
	// ErrClientService wraps failures to reach the client service or to understand its answer.
	ErrClientService = errors.New("client service")
)

// StatusError carries a non-2xx answer from the client service other than 404.
// Handlers relay StatusCode as-is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("client service returned status %d: %s", e.StatusCode, e.Body)
}

// ClientAPI looks up clients by their numeric id.
type ClientAPI interface {
	FindClientByID(ctx context.Context, id int64) (*models.Client, error)
}

// HTTPClient is the ClientAPI backed by the client service's REST endpoint
// GET {baseURL}/api/client/{id}.
type HTTPClient struct {
	baseURL    string
	healthPath string
	httpClient *http.Client
}

// NewHTTPClient creates a client service caller with the given base URL and timeout.
// baseURL should not carry a trailing path, e.g. "http://service-client:8081".
func NewHTTPClient(baseURL, healthPath string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		healthPath: healthPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FindClientByID fetches a single client.
//
// Errors:
//   - ErrClientNotFound on 404, or on a 2xx whose body is empty or JSON null
//   - *StatusError on any other non-2xx status
//   - an error wrapping ErrClientService on transport or decode failures; the cause stays
//     matchable too, so a timeout satisfies errors.Is(err, context.DeadlineExceeded)
func (c *HTTPClient) FindClientByID(ctx context.Context, id int64) (*models.Client, error) {
	url := fmt.Sprintf("%s/api/client/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build client request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrClientService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrClientNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrClientService, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, ErrClientNotFound
	}

	var client models.Client
	if err := json.Unmarshal(body, &client); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrClientService, err)
	}
	return &client, nil
}

// Health checks that the client service answers its health endpoint with a 2xx.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: health check failed: %w", ErrClientService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
