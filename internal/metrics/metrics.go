// Package metrics registers the Prometheus counters for the report
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	ReportsGenerated prometheus.Counter
	ReportFailures   prometheus.Counter
	EmailsSent       prometheus.Counter
	EmailFailures    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standsight",
			Name:      "reports_generated_total",
			Help:      "Reports rendered and persisted successfully.",
		}),
		ReportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standsight",
			Name:      "report_failures_total",
			Help:      "Report generation attempts that returned an error.",
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standsight",
			Name:      "emails_sent_total",
			Help:      "Report emails delivered.",
		}),
		EmailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standsight",
			Name:      "email_failures_total",
			Help:      "Report email attempts that returned an error.",
		}),
	}
	prometheus.MustRegister(
		m.ReportsGenerated,
		m.ReportFailures,
		m.EmailsSent,
		m.EmailFailures,
	)
	return m
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
