package instrumented

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/marmos91/assetd/internal/telemetry"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/memory"
	"github.com/marmos91/assetd/pkg/assetstore/storetest"
)

type observation struct {
	kind, operation string
	err             error
}

type fakeMetrics struct {
	ops   []observation
	bytes map[string]int64
}

func (f *fakeMetrics) ObserveOperation(kind, operation string, d time.Duration, err error) {
	f.ops = append(f.ops, observation{kind, operation, err})
}

func (f *fakeMetrics) RecordBytes(kind, operation string, n int64) {
	if f.bytes == nil {
		f.bytes = make(map[string]int64)
	}
	f.bytes[operation] += n
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	telemetry.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { telemetry.SetTracerProvider(noop.NewTracerProvider()) })
	return rec
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) assetstore.AssetStore {
		s := Wrap(memory.NewStore(assetstore.KindFolder), nil)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestWrap_RecordsOperations(t *testing.T) {
	rec := withRecorder(t)
	m := &fakeMetrics{}
	s := Wrap(memory.NewStore(assetstore.KindAzureBlob), m)
	ctx := context.Background()
	ref := assetstore.Ref{ID: "abc", Version: 1, Suffix: "thumb"}

	require.NoError(t, s.Upload(ctx, ref, strings.NewReader("hello")))
	require.ErrorIs(t, s.Upload(ctx, ref, strings.NewReader("again")), assetstore.ErrAssetAlreadyExists)

	var buf bytes.Buffer
	require.NoError(t, s.Download(ctx, ref, &buf))

	require.Len(t, m.ops, 3)
	assert.Equal(t, observation{"AzureBlob", "upload", nil}, m.ops[0])
	assert.ErrorIs(t, m.ops[1].err, assetstore.ErrAssetAlreadyExists)
	assert.Equal(t, "download", m.ops[2].operation)
	assert.Equal(t, int64(5), m.bytes["upload"])
	assert.Equal(t, int64(5), m.bytes["download"])

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "assetstore.upload", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.AttrAssetID, "abc"))
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.AttrSuffix, "thumb"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64(telemetry.AttrBytes, 5))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "assetstore.download", spans[2].Name())
}

func TestWrap_TemporaryOperations(t *testing.T) {
	rec := withRecorder(t)
	m := &fakeMetrics{}
	s := Wrap(memory.NewStore(assetstore.KindFolder), m)
	ctx := context.Background()

	require.NoError(t, s.UploadTemporary(ctx, "up-1", strings.NewReader("temp")))
	require.NoError(t, s.CopyTemporary(ctx, "up-1", assetstore.Ref{ID: "abc", Version: 1}))
	require.NoError(t, s.DeleteTemporary(ctx, "up-1"))

	var names []string
	for _, span := range rec.Ended() {
		names = append(names, span.Name())
		assert.Contains(t, span.Attributes(), attribute.String(telemetry.AttrTempName, "up-1"))
	}
	assert.Equal(t, []string{
		"assetstore.upload_temporary",
		"assetstore.copy_temporary",
		"assetstore.delete_temporary",
	}, names)
	assert.Equal(t, int64(4), m.bytes["upload_temporary"])
}

func TestWrap_Passthrough(t *testing.T) {
	inner := memory.NewStore(assetstore.KindMongoDB)
	s := Wrap(inner, nil)
	ref := assetstore.Ref{ID: "abc", Version: 2}

	assert.Equal(t, assetstore.KindMongoDB, s.Kind())
	assert.Equal(t, inner.SourceURL(ref), s.SourceURL(ref))
	assert.Same(t, inner, s.Unwrap())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, 1, inner.Backend().(*memory.Backend).InitializeCount())
	require.NoError(t, s.HealthCheck(context.Background()))
}
