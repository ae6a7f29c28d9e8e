// Package metrics exposes sync run metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/assessmentsync/pkg/sync"
)

const namespace = "assessmentsync"

// Recorder records run outcomes on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	writes      *prometheus.CounterVec
	records     *prometheus.GaugeVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by exit status.",
		}, []string{"status"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setting_writes_total",
			Help:      "Setting writes by setting name.",
		}, []string{"setting", "type"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_records",
			Help:      "Record counts of the last run.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished with status 0.",
		}),
	}
	r.registry.MustRegister(r.runs, r.writes, r.records, r.duration, r.lastSuccess)
	return r
}

// Observe records a finished run.
func (r *Recorder) Observe(res *sync.Result) {
	if r == nil || res == nil {
		return
	}
	r.runs.WithLabelValues(strconv.Itoa(int(res.Status))).Inc()
	r.duration.Observe(res.Duration.Seconds())

	for kind, n := range map[string]int{
		"internal":  res.Internal,
		"external":  res.External,
		"invalid":   res.Invalid,
		"matched":   res.Matched,
		"unmatched": res.Unmatched,
		"orphans":   res.Orphans,
		"filtered":  res.Filtered,
	} {
		r.records.WithLabelValues(kind).Set(float64(n))
	}

	if res.Changes != nil {
		for _, c := range res.Changes.Changes {
			if c.Applied {
				r.writes.WithLabelValues(c.Setting, string(c.Type)).Inc()
			}
		}
	}

	if res.Status == sync.StatusOK && !res.Failed() {
		r.lastSuccess.Set(float64(res.FinishedAt.Time.Unix()))
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Mux returns a mux with /metrics and /healthz.
func (r *Recorder) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
