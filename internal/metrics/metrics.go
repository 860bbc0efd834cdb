// Package metrics exposes validation outcomes to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/ordersan/internal/core"
)

// Run outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeWarnings = "warnings"
	OutcomeFatal    = "fatal"
	OutcomeError    = "error"
)

type Registry struct {
	reg         *prometheus.Registry
	Violations  *prometheus.GaugeVec
	Nulls       *prometheus.GaugeVec
	Rows        *prometheus.GaugeVec
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	violations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sanitize_check_violations",
		Help: "Rows flagged by each check in the most recent run.",
	}, []string{"check", "table"})
	nulls := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sanitize_null_values",
		Help: "Missing values per column in the most recent run.",
	}, []string{"table", "column"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sanitize_table_rows",
		Help: "Rows per table in the most recent run.",
	}, []string{"table"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sanitize_runs_total",
		Help: "Validation runs by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sanitize_run_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(violations, nulls, rows, runs, duration)
	return &Registry{
		reg:         r,
		Violations:  violations,
		Nulls:       nulls,
		Rows:        rows,
		Runs:        runs,
		RunDuration: duration,
	}
}

// Observe records a finished run. It implements core.Observer.
func (r *Registry) Observe(rep *core.Report, err error) {
	var hard *core.HardInvariantViolation
	switch {
	case errors.As(err, &hard):
		r.Runs.WithLabelValues(OutcomeFatal).Inc()
	case err != nil:
		r.Runs.WithLabelValues(OutcomeError).Inc()
	case rep != nil && len(rep.Warnings()) > 0:
		r.Runs.WithLabelValues(OutcomeWarnings).Inc()
	default:
		r.Runs.WithLabelValues(OutcomeOK).Inc()
	}
	if rep == nil {
		return
	}

	r.RunDuration.Observe(rep.Duration.Seconds())
	for _, c := range rep.Checks {
		r.Violations.WithLabelValues(c.Name, c.Table).Set(float64(c.Count))
	}
	for _, n := range rep.Nulls {
		r.Rows.WithLabelValues(n.Table).Set(float64(n.Rows))
		for _, c := range n.Columns {
			r.Nulls.WithLabelValues(n.Table, c.Column).Set(float64(c.Count))
		}
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
