// Package metrics exposes the pipeline's Prometheus surface: per-status
// job counters, LLM latency, and live queue/pool gauges. The pack carries
// github.com/prometheus/client_golang as a dependency that none of its
// repos actually wire up (it sits unused in their go.mod files too), so
// this package follows the library's own promauto/promhttp idiom rather
// than a specific example repo.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutordex/aggregator/pkg/queue"
)

// Registry owns every tutordex_* metric and the registry they live in. A
// nil *Registry is valid everywhere it's used (InstrumentExecutor,
// WireQueuePool) and is a no-op, matching pkg/delivery's nil-safe Service
// shape so metrics can be disabled without call sites branching on it.
type Registry struct {
	reg *prometheus.Registry

	jobsClaimed *prometheus.CounterVec
	jobsDone    prometheus.Counter
	jobsFailed  *prometheus.CounterVec
	jobsSkipped *prometheus.CounterVec
	llmLatency  prometheus.Histogram
}

// New builds a Registry with a fresh prometheus.Registry, registering the
// Go runtime and process collectors alongside the tutordex_* metrics.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		jobsClaimed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutordex_jobs_claimed_total",
			Help: "Extraction jobs claimed by a worker, by pipeline_version.",
		}, []string{"pipeline_version"}),
		jobsDone: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutordex_jobs_done_total",
			Help: "Extraction jobs that completed successfully.",
		}),
		jobsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutordex_jobs_failed_total",
			Help: "Extraction jobs that failed, by error kind.",
		}, []string{"kind"}),
		jobsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutordex_jobs_skipped_total",
			Help: "Extraction jobs skipped by C4 filter/triage, by skip reason.",
		}, []string{"reason"}),
		llmLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutordex_llm_latency_seconds",
			Help:    "C5 LLM extraction call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WireQueuePool registers gauges that read live state off pool.Health on
// every scrape (tutordex_queue_depth, tutordex_pool_utilization) rather
// than tracking duplicate counters — the worker pool is already the
// source of truth for this state (spec §6's health/metrics surface).
func (r *Registry) WireQueuePool(pool *queue.WorkerPool) {
	if r == nil || pool == nil {
		return
	}
	factory := promauto.With(r.reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutordex_queue_depth",
		Help: "Pending extraction jobs waiting to be claimed.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		health := pool.Health(ctx)
		return float64(health.QueueDepth)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutordex_pool_utilization",
		Help: "Fraction of worker pool slots currently processing a job.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		health := pool.Health(ctx)
		if health.TotalWorkers == 0 {
			return 0
		}
		return float64(health.ActiveWorkers) / float64(health.TotalWorkers)
	})
}

// InstrumentExecutor wraps executor so every Execute call records a claim,
// a terminal-status counter, and (when present) C5's latency into this
// registry, without pkg/pipeline or pkg/queue needing to know metrics
// exist. A nil Registry returns executor unchanged.
func (r *Registry) InstrumentExecutor(pipelineVersion string, executor queue.ExtractionExecutor) queue.ExtractionExecutor {
	if r == nil {
		return executor
	}
	return &instrumentedExecutor{reg: r, pipelineVersion: pipelineVersion, inner: executor}
}

type instrumentedExecutor struct {
	reg             *Registry
	pipelineVersion string
	inner           queue.ExtractionExecutor
}

func (e *instrumentedExecutor) Execute(ctx context.Context, job *queue.Job) *queue.ExecutionResult {
	e.reg.jobsClaimed.WithLabelValues(e.pipelineVersion).Inc()

	result := e.inner.Execute(ctx, job)
	if result == nil {
		return result
	}

	switch result.Status {
	case queue.StatusDone:
		e.reg.jobsDone.Inc()
	case queue.StatusFailed:
		e.reg.jobsFailed.WithLabelValues(result.ErrorKind).Inc()
	case queue.StatusSkipped:
		reason, _ := result.MetaPatch["skip_reason"].(string)
		e.reg.jobsSkipped.WithLabelValues(reason).Inc()
	}

	if ms, ok := result.MetaPatch["llm_latency_ms"].(int64); ok {
		e.reg.llmLatency.Observe(float64(ms) / 1000)
	}

	return result
}
