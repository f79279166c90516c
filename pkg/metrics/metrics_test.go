package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	assert.Nil(t, NewAssetStoreMetrics())

	reg := InitRegistry()
	require.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, InitRegistry())
}

type recordingMetrics struct {
	ops   int
	bytes int64
}

func (r *recordingMetrics) ObserveOperation(kind, operation string, d time.Duration, err error) {
	r.ops++
}

func (r *recordingMetrics) RecordBytes(kind, operation string, n int64) {
	r.bytes += n
}

func TestHelpers_NilSafe(t *testing.T) {
	ObserveOperation(nil, "Folder", "upload", time.Millisecond, nil)
	RecordBytes(nil, "Folder", "upload", 10)

	m := &recordingMetrics{}
	ObserveOperation(m, "Folder", "upload", time.Millisecond, nil)
	RecordBytes(m, "Folder", "upload", 10)
	assert.Equal(t, 1, m.ops)
	assert.Equal(t, int64(10), m.bytes)
}

func TestRouter(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)
	reg := InitRegistry()

	var healthErr error
	h := NewRouter(reg, func(ctx context.Context) error { return healthErr })

	tests := []struct {
		name     string
		path     string
		fail     error
		wantCode int
		wantBody string
	}{
		{"metrics", "/metrics", nil, http.StatusOK, "go_goroutines"},
		{"liveness", "/health", nil, http.StatusOK, `"healthy"`},
		{"ready", "/health/ready", nil, http.StatusOK, `"healthy"`},
		{"not ready", "/health/ready", errors.New("bucket unreachable"), http.StatusServiceUnavailable, "bucket unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthErr = tt.fail
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
