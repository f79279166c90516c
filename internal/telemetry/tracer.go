package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for asset store spans.
const (
	AttrStoreKind = "assetstore.kind"
	AttrOperation = "assetstore.operation"
	AttrAssetID   = "asset.id"
	AttrVersion   = "asset.version"
	AttrSuffix    = "asset.suffix"
	AttrTempName  = "asset.temporary_name"
	AttrBytes     = "asset.bytes"
	AttrConfigKey = "config.key"
)

// StoreKind returns an attribute for the asset store kind
func StoreKind(kind string) attribute.KeyValue {
	return attribute.String(AttrStoreKind, kind)
}

// Operation returns an attribute for the store operation
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// AssetID returns an attribute for the asset identifier
func AssetID(id string) attribute.KeyValue {
	return attribute.String(AttrAssetID, id)
}

// Version returns an attribute for the asset version
func Version(v int64) attribute.KeyValue {
	return attribute.Int64(AttrVersion, v)
}

// Suffix returns an attribute for the asset suffix
func Suffix(s string) attribute.KeyValue {
	return attribute.String(AttrSuffix, s)
}

// TemporaryName returns an attribute for a temporary file name
func TemporaryName(name string) attribute.KeyValue {
	return attribute.String(AttrTempName, name)
}

// Bytes returns an attribute for a transferred byte count
func Bytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytes, n)
}

// StartStoreSpan starts a client span named "assetstore.<operation>".
func StartStoreSpan(ctx context.Context, kind, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all, StoreKind(kind), Operation(operation))
	all = append(all, attrs...)

	return StartSpan(ctx, "assetstore."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}
