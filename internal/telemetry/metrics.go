package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
)

var (
	Registry = prometheus.NewRegistry()

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zephyrcast",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"op", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zephyrcast",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"op"},
	)

	InFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zephyrcast",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
		[]string{"op"},
	)

	// ---- Membership ----
	Nodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zephyrcast",
			Name:      "nodes",
			Help:      "Known peers by population.",
		},
		[]string{"state"},
	)

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zephyrcast",
			Name:      "transitions_total",
			Help:      "Policy reports other than none, by report.",
		},
		[]string{"report"},
	)

	Evictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zephyrcast",
			Name:      "evictions_total",
			Help:      "Peers dropped to make room for new ones.",
		},
	)

	RoundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "zephyrcast",
			Name:      "round_duration_seconds",
			Help:      "Time spent resetting the registry and repopulating layers.",
			// 100us .. ~1.6s
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
	)

	// ---- Process / build info ----
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zephyrcast",
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version and git_sha).",
		},
		[]string{"version", "git_sha"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "zephyrcast",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(RequestsTotal, RequestDuration, InFlight, Nodes, Transitions, Evictions,
		RoundDuration, buildInfo, uptime)
}

// MetricsHandler exposes /metrics. Mount it with mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once at startup, e.g. with ldflags-provided values.
func SetBuildInfo(version, gitSHA string) {
	buildInfo.WithLabelValues(version, gitSHA).Set(1)
}

// ---- Topology hooks ----

// TopologyMetrics feeds topology events into the collectors above. Pass it
// to topology.WithMetrics.
type TopologyMetrics struct{}

func (TopologyMetrics) Populations(c nodes.Count) {
	Nodes.WithLabelValues(nodes.Available.String()).Set(float64(c.Available))
	Nodes.WithLabelValues(nodes.NotReachable.String()).Set(float64(c.NotReachable))
	Nodes.WithLabelValues(nodes.Quarantined.String()).Set(float64(c.Quarantined))
}

func (TopologyMetrics) Transition(r policy.Report) {
	Transitions.WithLabelValues(r.String()).Inc()
}

func (TopologyMetrics) Evicted(n uint64) {
	Evictions.Add(float64(n))
}

func (TopologyMetrics) Round(d time.Duration) {
	RoundDuration.Observe(d.Seconds())
}

// ---- Middleware instrumentation ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps an http.Handler to record metrics under the provided "op" label.
// Example:
//
//	mux.Handle("/info", telemetry.Instrument("info", http.HandlerFunc(n.Info)))
func Instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()

		InFlight.WithLabelValues(op).Inc()
		defer InFlight.WithLabelValues(op).Dec()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(op, class).Inc()
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}
