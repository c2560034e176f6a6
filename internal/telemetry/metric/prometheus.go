package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storekeep"

// Restore outcomes used as label values.
const (
	RestoreRestored  = "restored"
	RestoreSkipped   = "skipped"
	RestoreRecovered = "recovered"
	RestoreFailed    = "failed"
)

// Persist holds the coordinator metrics.
type Persist struct {
	SavesTotal        *prometheus.CounterVec
	SaveDuration      *prometheus.HistogramVec
	SavesScheduled    *prometheus.CounterVec
	SavesCoalesced    *prometheus.CounterVec
	SavesCancelled    *prometheus.CounterVec
	RestoresTotal     *prometheus.CounterVec
	AttachmentsActive prometheus.Gauge
}

// NewPersist creates the coordinator metrics and registers them with reg.
func NewPersist(reg prometheus.Registerer) *Persist {
	p := &Persist{
		SavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "saves_total",
			Help:      "Snapshot writes to the backing store by result",
		}, []string{"store", "result"}),

		SaveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "save_duration_seconds",
			Help:      "Time to serialize and write one snapshot",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"store"}),

		SavesScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "saves_scheduled_total",
			Help:      "Change notifications that scheduled a debounced save",
		}, []string{"store"}),

		SavesCoalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "saves_coalesced_total",
			Help:      "Pending saves replaced by a later change notification",
		}, []string{"store"}),

		SavesCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "saves_cancelled_total",
			Help:      "Pending saves dropped because the store was closed",
		}, []string{"store"}),

		RestoresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "restores_total",
			Help:      "Restore attempts by outcome",
		}, []string{"store", "outcome"}),

		AttachmentsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "attachments_active",
			Help:      "Stores currently attached to a backing store",
		}),
	}

	reg.MustRegister(
		p.SavesTotal,
		p.SaveDuration,
		p.SavesScheduled,
		p.SavesCoalesced,
		p.SavesCancelled,
		p.RestoresTotal,
		p.AttachmentsActive,
	)

	return p
}

// ObserveSave records one write attempt.
func (p *Persist) ObserveSave(store string, elapsed time.Duration, err error) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.SavesTotal.WithLabelValues(store, result).Inc()
	p.SaveDuration.WithLabelValues(store).Observe(elapsed.Seconds())
}

// SaveScheduled records a debounced trigger. replaced is true when it
// displaced a pending save.
func (p *Persist) SaveScheduled(store string, replaced bool) {
	if p == nil {
		return
	}
	p.SavesScheduled.WithLabelValues(store).Inc()
	if replaced {
		p.SavesCoalesced.WithLabelValues(store).Inc()
	}
}

// SaveCancelled records a pending save dropped on close.
func (p *Persist) SaveCancelled(store string) {
	if p == nil {
		return
	}
	p.SavesCancelled.WithLabelValues(store).Inc()
}

// Restore records a restore outcome.
func (p *Persist) Restore(store, outcome string) {
	if p == nil {
		return
	}
	p.RestoresTotal.WithLabelValues(store, outcome).Inc()
}

// Attached adjusts the active attachment gauge by delta.
func (p *Persist) Attached(delta int) {
	if p == nil {
		return
	}
	p.AttachmentsActive.Add(float64(delta))
}

// Handler returns an HTTP handler serving the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
