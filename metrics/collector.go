// Package metrics exports ringpool statistics as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tahsin716/ringpool"
)

const namespace = "ringpool"

// StatsSource is implemented by *ringpool.Pool.
type StatsSource interface {
	Stats() ringpool.Stats
}

// Collector reads a fresh Stats snapshot on every scrape.
type Collector struct {
	src StatsSource

	submitted     *prometheus.Desc
	rejected      *prometheus.Desc
	dropped       *prometheus.Desc
	executed      *prometheus.Desc
	stolen        *prometheus.Desc
	failed        *prometheus.Desc
	queueDepth    *prometheus.Desc
	queueCapacity *prometheus.Desc
	workers       *prometheus.Desc
}

// NewCollector returns a collector for src. Every metric carries a constant
// "pool" label set to poolName so several pools can share a registry.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector(pool, "ingest"))
func NewCollector(src StatsSource, poolName string) *Collector {
	constLabels := prometheus.Labels{"pool": poolName}
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, constLabels)
	}

	return &Collector{
		src:           src,
		submitted:     desc("tasks_submitted_total", "Total number of tasks accepted by a worker queue."),
		rejected:      desc("tasks_rejected_total", "Total number of submissions refused because the chosen queue was full."),
		dropped:       desc("tasks_dropped_total", "Total number of queued tasks destroyed by Close without running."),
		executed:      desc("tasks_executed_total", "Total number of tasks run by a worker.", "worker"),
		stolen:        desc("tasks_stolen_total", "Total number of tasks a worker took from its donor.", "worker"),
		failed:        desc("tasks_failed_total", "Total number of tasks that panicked on a worker.", "worker"),
		queueDepth:    desc("queue_depth", "Number of tasks waiting in a worker queue.", "worker"),
		queueCapacity: desc("queue_capacity", "Capacity of a worker queue.", "worker"),
		workers:       desc("workers", "Number of workers in the pool."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.submitted
	ch <- c.rejected
	ch <- c.dropped
	ch <- c.executed
	ch <- c.stolen
	ch <- c.failed
	ch <- c.queueDepth
	ch <- c.queueCapacity
	ch <- c.workers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.Submitted))
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(s.Rejected))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.NumWorkers))

	for _, w := range s.Workers {
		id := strconv.Itoa(w.WorkerID)
		ch <- prometheus.MustNewConstMetric(c.executed, prometheus.CounterValue, float64(w.Executed), id)
		ch <- prometheus.MustNewConstMetric(c.stolen, prometheus.CounterValue, float64(w.Stolen), id)
		ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(w.Failed), id)
		ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(w.QueueDepth), id)
		ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(w.Capacity), id)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
