package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hiddengems"

// Exchange outcomes recorded on hiddengems_token_exchanges_total.
const (
	OutcomeSuccess       = "success"
	OutcomeNetworkError  = "network_error"
	OutcomeProviderError = "provider_error"
	OutcomeConfigError   = "config_error"
)

// Recorder counts token exchanges and Spotify Web API calls. A nil *Recorder records nothing,
// so components can be built without metrics in tests and the terminal client.
type Recorder struct {
	exchanges *prometheus.CounterVec
	apiCalls  *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	exchanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_exchanges_total",
		Help:      "Token endpoint exchanges by grant type and outcome.",
	}, []string{"grant", "outcome"})
	apiCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "spotify_requests_total",
		Help:      "Spotify Web API requests by operation and response status class.",
	}, []string{"op", "status"})
	for _, c := range []prometheus.Collector{exchanges, apiCalls} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &Recorder{exchanges: exchanges, apiCalls: apiCalls}, nil
}

func (r *Recorder) ObserveExchange(grant, outcome string) {
	if r == nil {
		return
	}
	r.exchanges.WithLabelValues(grant, outcome).Inc()
}

// ObserveAPICall records one Spotify request. status is the HTTP status; 0 means no response.
func (r *Recorder) ObserveAPICall(op string, status int) {
	if r == nil {
		return
	}
	r.apiCalls.WithLabelValues(op, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler returns an http.Handler that serves the default Prometheus registry (GET /metrics).
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerForRegistry returns an http.Handler that serves the given registry. Use in tests so each test server has its own registry.
func HandlerForRegistry(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
