// Package metrics exposes Prometheus collectors for reports, ranking passes and store calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quiz_streak"

// Ranking pass outcomes.
const (
	PassOK      = "ok"
	PassPartial = "partial"
	PassFailed  = "failed"
)

// Collector groups the bot's metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	reports        *prometheus.CounterVec
	rankingPasses  *prometheus.CounterVec
	rankingResets  *prometheus.CounterVec
	webhookUpdates *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)

	return &Collector{
		gatherer: reg,
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Daily reports handled, by outcome.",
		}, []string{"outcome"}),
		rankingPasses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_passes_total",
			Help:      "Leaderboard passes, by outcome.",
		}, []string{"outcome"}),
		rankingResets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_resets_total",
			Help:      "Streak reset writes issued by leaderboard passes.",
		}, []string{"outcome"}),
		webhookUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound chat updates, by kind.",
		}, []string{"kind"}),
		storeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_seconds",
			Help:      "Record store call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
}

// ObserveReport counts a report by outcome (created, advanced, ..., invalid, failed).
func (c *Collector) ObserveReport(outcome string) {
	if c == nil {
		return
	}
	c.reports.WithLabelValues(outcome).Inc()
}

// ObservePass counts a finished ranking pass.
func (c *Collector) ObservePass(outcome string) {
	if c == nil {
		return
	}
	c.rankingPasses.WithLabelValues(outcome).Inc()
}

// ObserveResets counts reset writes of one pass.
func (c *Collector) ObserveResets(ok, failed int) {
	if c == nil {
		return
	}
	c.rankingResets.WithLabelValues("ok").Add(float64(ok))
	c.rankingResets.WithLabelValues("failed").Add(float64(failed))
}

// ObserveUpdate counts an inbound update by how it was routed.
func (c *Collector) ObserveUpdate(kind string) {
	if c == nil {
		return
	}
	c.webhookUpdates.WithLabelValues(kind).Inc()
}

// ObserveStore records the latency of one store call.
func (c *Collector) ObserveStore(op string, started time.Time, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.storeLatency.WithLabelValues(op, status).Observe(time.Since(started).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
