// Package observability provides the structured diagnostics and metric
// counters required by the failure/observability component: one event
// per command boundary, plus counters for cache hits, judge cost,
// sandbox outcomes, retries, and orphan reaps.
package observability

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Registry bundles the metric counters exposed to an embedder. Nothing
// in this package serves them over HTTP — scraping is presentation-
// adjacent and out of scope; the registry is a plain Go value the host
// program can wire into its own exporter if it wants to.
type Registry struct {
	Reg *prometheus.Registry

	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	JudgeCostCents  prometheus.Counter
	SandboxOutcomes *prometheus.CounterVec
	Retries         *prometheus.CounterVec
	OrphanReaps     prometheus.Counter
	CommandDuration *prometheus.HistogramVec
}

// NewRegistry constructs and registers every counter coursekit emits.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Reg: reg,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursekit_grade_cache_hits_total",
			Help: "Grade cache hits serviced without calling the judge.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursekit_grade_cache_misses_total",
			Help: "Grade cache misses that required a judge call.",
		}),
		JudgeCostCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursekit_judge_cost_cents_total",
			Help: "Estimated judge call cost in cents.",
		}),
		SandboxOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursekit_sandbox_runs_total",
			Help: "Sandbox runs by outcome.",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursekit_retries_total",
			Help: "Retry attempts by subsystem.",
		}, []string{"subsystem"}),
		OrphanReaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursekit_sandbox_orphan_reaps_total",
			Help: "Orphaned sandbox contexts forcibly removed.",
		}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursekit_command_duration_seconds",
			Help:    "Command Surface call duration by command kind and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(
		r.CacheHits, r.CacheMisses, r.JudgeCostCents,
		r.SandboxOutcomes, r.Retries, r.OrphanReaps, r.CommandDuration,
	)
	return r
}

// NewLogger builds the process-wide structured logger. Every command
// boundary logs one event through it; level and destination are the only
// knobs, matching the teacher's habit of a single injected logger rather
// than ad-hoc fmt.Println calls once an LLM provider is wired up.
func NewLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// CommandEvent logs a single command-boundary diagnostic and records its
// duration/outcome in the registry.
func (r *Registry) CommandEvent(log zerolog.Logger, kind string, start time.Time, outcome string, err error) {
	elapsed := time.Since(start)
	evt := log.Info()
	if err != nil {
		evt = log.Error().Err(err)
	}
	evt.Str("kind", kind).
		Dur("duration", elapsed).
		Str("outcome", outcome).
		Msg("command")

	r.CommandDuration.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
}
