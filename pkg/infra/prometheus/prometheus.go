package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Hot-path latency buckets in milliseconds; the decision path is
	// expected in the sub-millisecond to low-millisecond range.
	latencyBuckets = []float64{
		0.1, 0.25, 0.5,
		1, 2.5, 5,
		10, 25, 50,
		100, 250, 1000,
	}

	RequestsEvaluated = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_requests_evaluated_total",
			Help: "Requests evaluated by the engine, by verdict",
		},
		[]string{"verdict"},
	)

	ThreatsDetected = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_threats_detected_total",
			Help: "Threat classifications by level",
		},
		[]string{"level"},
	)

	StoreErrors = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_store_errors_total",
			Help: "Durable store failures on the request path, by operation",
		},
		[]string{"operation"},
	)

	EvaluateLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shield_evaluate_latency_ms",
			Help:    "Engine decision latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	BruteForceBlocks = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "shield_brute_force_blocks_total",
			Help: "Blocks inserted by the brute-force detector",
		},
	)
)

func init() {
	registerer.MustRegister(collectors.NewGoCollector())
	registerer.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler exposes the private registry for the metrics port.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
