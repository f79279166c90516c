package metrics

import "time"

// AssetStoreMetrics records asset store operations.
//
// Implementations must be safe for concurrent use. A nil AssetStoreMetrics
// means metrics are disabled; use the package helpers to record through it.
type AssetStoreMetrics interface {
	// ObserveOperation records an operation with its duration and outcome.
	ObserveOperation(kind, operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved by an upload or download.
	RecordBytes(kind, operation string, bytes int64)
}

// NewAssetStoreMetrics creates the Prometheus-backed AssetStoreMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or no
// implementation has been registered.
//
// Example usage:
//
//	metrics.InitRegistry()
//	store := instrumented.Wrap(store, metrics.NewAssetStoreMetrics())
func NewAssetStoreMetrics() AssetStoreMetrics {
	if !IsEnabled() || newPrometheusAssetStoreMetrics == nil {
		return nil
	}
	return newPrometheusAssetStoreMetrics()
}

// newPrometheusAssetStoreMetrics is set by pkg/metrics/prometheus.
// This indirection avoids an import cycle.
var newPrometheusAssetStoreMetrics func() AssetStoreMetrics

// RegisterAssetStoreMetricsConstructor registers the Prometheus constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterAssetStoreMetricsConstructor(constructor func() AssetStoreMetrics) {
	newPrometheusAssetStoreMetrics = constructor
}

// ObserveOperation records an operation if m is not nil.
func ObserveOperation(m AssetStoreMetrics, kind, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(kind, operation, duration, err)
	}
}

// RecordBytes records transferred bytes if m is not nil.
func RecordBytes(m AssetStoreMetrics, kind, operation string, bytes int64) {
	if m != nil {
		m.RecordBytes(kind, operation, bytes)
	}
}
