package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveExchange(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveExchange("refresh_token", OutcomeSuccess)
	r.ObserveExchange("refresh_token", OutcomeSuccess)
	r.ObserveExchange("authorization_code", OutcomeProviderError)

	require.Equal(t, 2.0, testutil.ToFloat64(r.exchanges.WithLabelValues("refresh_token", OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.exchanges.WithLabelValues("authorization_code", OutcomeProviderError)))
}

func TestRecorder_ObserveAPICall_StatusClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveAPICall("search", 200)
	r.ObserveAPICall("search", 204)
	r.ObserveAPICall("search", 401)
	r.ObserveAPICall("search", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(r.apiCalls.WithLabelValues("search", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.apiCalls.WithLabelValues("search", "4xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.apiCalls.WithLabelValues("search", "error")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() {
		r.ObserveExchange("client_credentials", OutcomeSuccess)
		r.ObserveAPICall("me", 200)
	})
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	require.Error(t, err)
}

func TestHandlerForRegistry_ServesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)
	r.ObserveExchange("client_credentials", OutcomeSuccess)

	rec := httptest.NewRecorder()
	HandlerForRegistry(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "hiddengems_token_exchanges_total"))
}
