// Package metrics defines the prometheus instruments of the client transport
// and reads or serves them back.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transport instruments outbound HTTP calls and session teardowns.
type Transport struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	InFlight     prometheus.Gauge
	Terminations prometheus.Counter
}

// NewTransport creates the instruments and registers them with reg.
func NewTransport(reg prometheus.Registerer) *Transport {
	m := &Transport{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventsplatform",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the events service, by status code and method.",
		}, []string{"code", "method"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eventsplatform",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip latency of requests to the events service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventsplatform",
			Subsystem: "client",
			Name:      "requests_in_flight",
			Help:      "Requests currently waiting for a response.",
		}),
		Terminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventsplatform",
			Subsystem: "client",
			Name:      "session_terminations_total",
			Help:      "Sessions torn down after a 401 from the events service.",
		}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.InFlight, m.Terminations)
	return m
}

// Wrap instruments next.
func (m *Transport) Wrap(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(m.InFlight,
		promhttp.InstrumentRoundTripperCounter(m.Requests,
			promhttp.InstrumentRoundTripperDuration(m.Duration, next)))
}

// SessionTerminated counts one 401 teardown.
func (m *Transport) SessionTerminated() {
	m.Terminations.Inc()
}
