// File: observability/prometheus/exporter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collector over reactor activity. Sits entirely outside the
// data path: every scrape reads one reactor.Stats snapshot, built from
// separate atomic counter loads.

package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-aio/reactor"
)

// Exporter adapts reactor.Stats to Prometheus collectors.
type Exporter struct {
	r *reactor.Reactor

	submitted *prom.Desc
	completed *prom.Desc
	inFlight  *prom.Desc
	posted    *prom.Desc
	workers   *prom.Desc
}

var _ prom.Collector = (*Exporter)(nil)

// NewExporter creates and registers a collector for r. An empty
// namespace defaults to "hioload_aio".
func NewExporter(namespace string, reg prom.Registerer, r *reactor.Reactor) (*Exporter, error) {
	if namespace == "" {
		namespace = "hioload_aio"
	}
	backendLabel := prom.Labels{"file_backend": r.Stats().FileBackend}
	e := &Exporter{
		r: r,
		submitted: prom.NewDesc(
			prom.BuildFQName(namespace, "reactor", "ops_submitted_total"),
			"Operations submitted to the reactor backends.",
			nil, backendLabel),
		completed: prom.NewDesc(
			prom.BuildFQName(namespace, "reactor", "ops_completed_total"),
			"Operations whose continuations have resumed.",
			nil, backendLabel),
		inFlight: prom.NewDesc(
			prom.BuildFQName(namespace, "reactor", "ops_in_flight"),
			"Operations submitted but not yet resumed.",
			nil, backendLabel),
		posted: prom.NewDesc(
			prom.BuildFQName(namespace, "reactor", "posts_total"),
			"Callables posted directly onto the worker pool.",
			nil, backendLabel),
		workers: prom.NewDesc(
			prom.BuildFQName(namespace, "executor", "workers"),
			"Active worker goroutines.",
			nil, nil),
	}
	if reg != nil {
		if err := reg.Register(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Describe implements prom.Collector.
func (e *Exporter) Describe(ch chan<- *prom.Desc) {
	ch <- e.submitted
	ch <- e.completed
	ch <- e.inFlight
	ch <- e.posted
	ch <- e.workers
}

// Collect implements prom.Collector.
func (e *Exporter) Collect(ch chan<- prom.Metric) {
	s := e.r.Stats()
	ch <- prom.MustNewConstMetric(e.submitted, prom.CounterValue, float64(s.Submitted))
	ch <- prom.MustNewConstMetric(e.completed, prom.CounterValue, float64(s.Completed))
	ch <- prom.MustNewConstMetric(e.inFlight, prom.GaugeValue, float64(s.InFlight))
	ch <- prom.MustNewConstMetric(e.posted, prom.CounterValue, float64(s.Posted))
	ch <- prom.MustNewConstMetric(e.workers, prom.GaugeValue, float64(s.Workers))
}
