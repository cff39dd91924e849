package infra

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const retryAttempts = 3

// APIClient talks to an upstream HTTP API (Spotify Web API, Spotify accounts service).
// DoWithRetry performs requests with retry on transient connection/timeout errors.
type APIClient struct {
	BaseURL string
	Client  *http.Client
}

// NewAPIClient returns a client for the given base URL (e.g. https://api.spotify.com/v1).
// If client is nil, an otelhttp-instrumented client with a 15s timeout is used.
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = NewHTTPClient(15 * time.Second)
	}
	return &APIClient{BaseURL: strings.TrimSuffix(baseURL, "/"), Client: client}
}

// NewHTTPClient returns an http.Client whose transport propagates trace context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// URL joins path onto the base URL.
func (c *APIClient) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// DoWithRetry sends req, resending it up to retryAttempts times when an idempotent request
// fails before any response arrives (refused connection, timeout). Non-idempotent requests
// such as the authorization code POST are sent once: a code is single-use. Responses are
// returned as-is whatever their status; the caller closes resp.Body.
func (c *APIClient) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := 1
	if isIdempotent(req.Method) {
		attempts = retryAttempts
	}

	resp, err := c.Client.Do(req)
	for attempt := 1; err != nil && attempt < attempts && isRetryableErr(err); attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
		retry := req.Clone(ctx)
		if req.GetBody != nil {
			if retry.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		resp, err = c.Client.Do(retry)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func isRetryableErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, context.DeadlineExceeded)
}
