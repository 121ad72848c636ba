// Package admin implements the HTTP admin endpoints served next to the bin API.
// It owns a Prometheus registry with the request, bin and capture collectors
// and keeps the list of in-flight requests rendered by /statusz.
package admin

import (
	"encoding/json"
	"html"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HistogramBuckets defines the latency buckets (seconds) used when observing request durations.
var HistogramBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

const namespace = "rusqbin"

// Metrics is the collector set consumed by the bin server and /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bins     prometheus.Gauge
	captured prometheus.Counter
	inflight prometheus.Gauge

	mu           sync.Mutex
	inflightList map[string]inflightEntry
}

type inflightEntry struct {
	Desc  string
	Start time.Time
}

// NewMetrics constructs Metrics on a private registry, so several instances
// can live in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry:     prometheus.NewRegistry(),
		inflightList: make(map[string]inflightEntry),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests handled, by routed operation and status code.",
		}, []string{"op", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request duration by routed operation.",
			Buckets:   HistogramBuckets,
		}, []string{"op"}),
		bins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bins",
			Help:      "Live bins.",
		}),
		captured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captured_requests_total",
			Help:      "Requests stored into a bin.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "In-flight requests.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.bins,
		m.captured,
		m.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// InflightAdd records an inflight request with id.
func (m *Metrics) InflightAdd(id, desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflightList[id] = inflightEntry{Desc: desc, Start: time.Now()}
	m.inflight.Set(float64(len(m.inflightList)))
}

// InflightRemove removes an inflight request id.
func (m *Metrics) InflightRemove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflightList, id)
	m.inflight.Set(float64(len(m.inflightList)))
}

// ObserveRequest counts a finished request and records its duration.
func (m *Metrics) ObserveRequest(op string, code int, seconds float64) {
	m.requests.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) IncBins()     { m.bins.Inc() }
func (m *Metrics) DecBins()     { m.bins.Dec() }
func (m *Metrics) IncCaptured() { m.captured.Inc() }

// Admin handlers

// HandleHealth is a simple healthz handler.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleVarz writes config (provided) as JSON.
func HandleVarz(w http.ResponseWriter, cfg interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cfg)
}

// HandleStatusz renders a small HTML page showing inflight requests, oldest first.
func HandleStatusz(w http.ResponseWriter, m *Metrics) {
	m.mu.Lock()
	entries := make([]inflightEntry, 0, len(m.inflightList))
	ids := make([]string, 0, len(m.inflightList))
	for id, e := range m.inflightList {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	m.mu.Unlock()

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return entries[order[a]].Start.Before(entries[order[b]].Start) })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<html><body><h1>Status</h1>"))
	_, _ = w.Write([]byte("<p>Inflight: " + strconv.Itoa(len(entries)) + "</p>"))
	_, _ = w.Write([]byte("<table border='1'><tr><th>ID</th><th>Request</th><th>Start</th><th>Age(s)</th></tr>"))
	now := time.Now()
	for _, i := range order {
		e := entries[i]
		age := now.Sub(e.Start).Seconds()
		_, _ = w.Write([]byte("<tr><td>" + html.EscapeString(ids[i]) + "</td><td>" + html.EscapeString(e.Desc) + "</td><td>" +
			e.Start.Format(time.RFC3339) + "</td><td>" + strconv.FormatFloat(age, 'f', 3, 64) + "</td></tr>"))
	}
	_, _ = w.Write([]byte("</table></body></html>"))
}

// HandleMetrics writes the registry in the Prometheus exposition format.
func HandleMetrics(w http.ResponseWriter, r *http.Request, m *Metrics) {
	promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// NewMux wires every admin endpoint. varz is rendered as-is by /varz.
func NewMux(m *Metrics, varz interface{}) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HandleHealth)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) { HandleMetrics(w, r, m) })
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, r *http.Request) { HandleStatusz(w, m) })
	mux.HandleFunc("/varz", func(w http.ResponseWriter, r *http.Request) { HandleVarz(w, varz) })
	return mux
}
