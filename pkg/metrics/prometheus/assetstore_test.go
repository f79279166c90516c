package prometheus

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/metrics"
)

func newMetrics(t *testing.T) *assetStoreMetrics {
	t.Helper()

	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m, ok := metrics.NewAssetStoreMetrics().(*assetStoreMetrics)
	require.True(t, ok)
	return m
}

func TestNewAssetStoreMetrics_Disabled(t *testing.T) {
	metrics.ResetRegistry()
	assert.Nil(t, NewAssetStoreMetrics())
}

func TestObserveOperation_Status(t *testing.T) {
	m := newMetrics(t)

	m.ObserveOperation("Folder", "upload", time.Millisecond, nil)
	m.ObserveOperation("Folder", "upload", time.Millisecond, assetstore.ErrAssetAlreadyExists)
	m.ObserveOperation("Folder", "download", time.Millisecond, fmt.Errorf("wrapped: %w", assetstore.ErrAssetNotFound))
	m.ObserveOperation("Folder", "download", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Folder", "upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Folder", "upload", "already_exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Folder", "download", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Folder", "download", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))
}

func TestRecordBytes(t *testing.T) {
	m := newMetrics(t)

	m.RecordBytes("MongoDb", "upload", 100)
	m.RecordBytes("MongoDb", "upload", 50)
	m.RecordBytes("MongoDb", "upload", 0)

	assert.Equal(t, 150.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("MongoDb", "upload")))
}

func TestNilReceiver(t *testing.T) {
	var m *assetStoreMetrics
	m.ObserveOperation("Folder", "upload", time.Millisecond, nil)
	m.RecordBytes("Folder", "upload", 10)
}
