// Package metrics exposes Prometheus counters for discovery sweeps and stream
// sessions, and the HTTP server that serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "btc15m_search_requests_total", Help: "Search requests issued during discovery sweeps"},
		[]string{"result"},
	)
	Sweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "btc15m_discovery_sweeps_total", Help: "Completed discovery sweeps"},
		[]string{"result"},
	)
	Sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "btc15m_sessions_total", Help: "Stream sessions by terminal outcome"},
		[]string{"outcome"},
	)
	PriceUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "btc15m_price_updates_total", Help: "Accepted best ask updates"},
		[]string{"side"},
	)
	MalformedMessages = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "btc15m_malformed_messages_total", Help: "Inbound stream payloads that failed to decode"},
	)
	BestAsk = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "btc15m_best_ask", Help: "Last accepted best ask of the live market"},
		[]string{"side"},
	)
)

func init() {
	prometheus.MustRegister(SearchRequests, Sweeps, Sessions, PriceUpdates, MalformedMessages, BestAsk)
}

// NewServer returns a server exposing /metrics on addr. The caller starts it.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
