package logger

import "log/slog"

// Standard field keys. Use these instead of ad-hoc strings so that log
// queries stay stable across packages.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Operation
	KeyOperation  = "operation"
	KeyStatus     = "status"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"

	// Asset store
	KeyKind      = "kind"
	KeyAssetID   = "asset_id"
	KeyVersion   = "version"
	KeySuffix    = "suffix"
	KeyKey       = "key"
	KeyBytes     = "bytes"
	KeyPath      = "path"
	KeyBucket    = "bucket"
	KeyContainer = "container"
	KeyDatabase  = "database"
	KeyRegion    = "region"

	// Configuration
	KeyConfigKey  = "config_key"
	KeyConfigFile = "config_file"
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the operation name
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Kind returns a slog.Attr for the asset store kind
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// AssetID returns a slog.Attr for an asset identifier
func AssetID(id string) slog.Attr {
	return slog.String(KeyAssetID, id)
}

// Version returns a slog.Attr for an asset version
func Version(v int64) slog.Attr {
	return slog.Int64(KeyVersion, v)
}

// Key returns a slog.Attr for a backend object key
func Key(key string) slog.Attr {
	return slog.String(KeyKey, key)
}

// Bytes returns a slog.Attr for a byte count
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
