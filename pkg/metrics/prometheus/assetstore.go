// Package prometheus implements the metric interfaces of pkg/metrics.
// Import it for side effects to enable Prometheus metrics.
package prometheus

import (
	"errors"
	"time"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterAssetStoreMetricsConstructor(NewAssetStoreMetrics)
}

// assetStoreMetrics is the Prometheus implementation of metrics.AssetStoreMetrics.
type assetStoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewAssetStoreMetrics creates a new Prometheus-backed AssetStoreMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewAssetStoreMetrics() metrics.AssetStoreMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &assetStoreMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetd_assetstore_operations_total",
				Help: "Total number of asset store operations by kind, operation and status",
			},
			[]string{"kind", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "assetd_assetstore_operation_duration_milliseconds",
				Help: "Duration of asset store operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms - local folder
					10,    // 10ms
					50,    // 50ms - small objects
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - large objects
					30000, // 30s
				},
			},
			[]string{"kind", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetd_assetstore_bytes_total",
				Help: "Total bytes moved by asset store uploads and downloads",
			},
			[]string{"kind", "operation"},
		),
	}
}

func (m *assetStoreMetrics) ObserveOperation(kind, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.operationsTotal.WithLabelValues(kind, operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(kind, operation).Observe(duration.Seconds() * 1000)
}

func (m *assetStoreMetrics) RecordBytes(kind, operation string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(kind, operation).Add(float64(bytes))
}

// status maps an operation error to a low-cardinality label value.
func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, assetstore.ErrAssetNotFound):
		return "not_found"
	case errors.Is(err, assetstore.ErrAssetAlreadyExists):
		return "already_exists"
	default:
		return "error"
	}
}
