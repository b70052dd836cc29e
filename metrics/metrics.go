// Package metrics exports container slot usage to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulldump/hyperpool/registry"
)

const namespace = "hyperpool"

// Collector reads container stats on every scrape, nothing is cached.
type Collector struct {
	registry *registry.Registry

	containers *prometheus.Desc
	live       *prometheus.Desc
	capacity   *prometheus.Desc
	allocated  *prometheus.Desc
	free       *prometheus.Desc
	blocks     *prometheus.Desc
}

func NewCollector(r *registry.Registry) *Collector {

	labels := []string{"type"}
	constLabels := prometheus.Labels{"registry": r.ID}

	return &Collector{
		registry: r,
		containers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "registry", "containers"),
			"Number of registered containers.",
			nil, constLabels),
		live: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "container", "live_objects"),
			"Objects constructed and not yet destroyed.",
			labels, constLabels),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "container", "capacity_slots"),
			"Slots backed by allocated blocks.",
			labels, constLabels),
		allocated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "container", "allocated_indices"),
			"Highest index ever handed out.",
			labels, constLabels),
		free: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "container", "free_indices"),
			"Released indices waiting to be reused.",
			labels, constLabels),
		blocks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "container", "blocks"),
			"Storage blocks.",
			labels, constLabels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.containers
	ch <- c.live
	ch <- c.capacity
	ch <- c.allocated
	ch <- c.free
	ch <- c.blocks
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {

	entries := c.registry.List()
	ch <- prometheus.MustNewConstMetric(c.containers, prometheus.GaugeValue, float64(len(entries)))

	for _, entry := range entries {
		stats := entry.Container.Stats()
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(stats.Live), entry.Name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(stats.Capacity), entry.Name)
		ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.GaugeValue, float64(stats.Allocated), entry.Name)
		ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(stats.Free), entry.Name)
		ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(stats.Blocks), entry.Name)
	}
}

// Handler serves the registry metrics together with the go runtime ones.
func Handler(r *registry.Registry) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(r),
		collectors.NewGoCollector(),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
