package infra

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// refusingTransport fails every request the way a refused dial does.
type refusingTransport struct {
	calls atomic.Int32
}

func (t *refusingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestDoWithRetry_RetriesIdempotentRequests(t *testing.T) {
	rt := &refusingTransport{}
	c := NewAPIClient("http://upstream.invalid/v1", &http.Client{Transport: rt})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, c.URL("me"), nil)
	require.NoError(t, err)
	_, err = c.DoWithRetry(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, int32(retryAttempts), rt.calls.Load())
}

func TestDoWithRetry_SendsPOSTOnce(t *testing.T) {
	rt := &refusingTransport{}
	c := NewAPIClient("http://accounts.invalid/api/token", &http.Client{Transport: rt})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, c.BaseURL, strings.NewReader("grant_type=authorization_code&code=C"))
	require.NoError(t, err)
	_, err = c.DoWithRetry(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, int32(1), rt.calls.Load())
}

func TestDoWithRetry_StopsOnCancel(t *testing.T) {
	rt := &refusingTransport{}
	c := NewAPIClient("http://upstream.invalid/v1", &http.Client{Transport: rt})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("me"), nil)
	require.NoError(t, err)
	_, err = c.DoWithRetry(ctx, req)
	require.ErrorIs(t, err, context.Canceled)
}
