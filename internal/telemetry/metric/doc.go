// Package metric provides Prometheus metrics for storekeep.
//
//   - prometheus.go: persistence counters and histograms, HTTP handler
//   - collector.go: collector reporting backing-store statistics
//
// Metrics are labelled by store ID. Every recording method is safe to call
// on a nil *Persist, so instrumentation stays optional.
package metric
