// Package metrics exposes Prometheus counters for photo and race operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records photo store and race workflow outcomes.
type Collector struct {
	photoOps        *prometheus.CounterVec
	raceOps         *prometheus.CounterVec
	cleanupFailures prometheus.Counter
	gatherer        prometheus.Gatherer
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		photoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rungroop_photo_operations_total",
			Help: "Photo store calls by operation and result.",
		}, []string{"op", "result"}),
		raceOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rungroop_race_operations_total",
			Help: "Race workflow runs by operation and result.",
		}, []string{"op", "result"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rungroop_photo_cleanup_failures_total",
			Help: "Detached photo deletions that failed.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(c.photoOps, c.raceOps, c.cleanupFailures)
	return c
}

// RecordPhotoOperation counts one photo store call.
func (c *Collector) RecordPhotoOperation(op string, ok bool) {
	c.photoOps.WithLabelValues(op, result(ok)).Inc()
}

// RecordRaceOperation counts one create, edit or delete workflow run.
func (c *Collector) RecordRaceOperation(op string, ok bool) {
	c.raceOps.WithLabelValues(op, result(ok)).Inc()
}

// RecordCleanupFailure counts a failed background photo deletion.
func (c *Collector) RecordCleanupFailure() {
	c.cleanupFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
