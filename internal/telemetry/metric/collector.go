package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/storekeep/internal/storage"
)

// StatsSource is implemented by backing stores that report statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// StorageCollector exports backing-store statistics at scrape time.
type StorageCollector struct {
	source StatsSource
	engine string

	records *prometheus.Desc
	bytes   *prometheus.Desc
}

// NewStorageCollector creates a collector for source, labelled with engine.
func NewStorageCollector(engine string, source StatsSource) *StorageCollector {
	return &StorageCollector{
		source: source,
		engine: engine,
		records: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "records"),
			"Records held by the backing store",
			nil, prometheus.Labels{"engine": engine},
		),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "size_bytes"),
			"Approximate size of the backing store in bytes",
			nil, prometheus.Labels{"engine": engine},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.bytes
}

// Collect implements prometheus.Collector.
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.records, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(stats.Keys))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(stats.TotalSize))
}
