package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and restores the
// previous settings when the test ends.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := currentLevel.Load()
	originalFormat := currentFormat.Load()
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(originalLevel)
		currentFormat.Store(originalFormat)
		reconfigure()
	})

	return buf
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugShowsEverything", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		for _, want := range []string{"[DEBUG] debug message", "[INFO] info message", "[WARN] warn message", "[ERROR] error message"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("WarnFiltersLowerLevels", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("warn")

		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("ERROR")
		SetLevel("verbose")

		Warn("warn message")
		assert.Empty(t, buf.String())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"trace", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")

	Info("uploaded asset", KeyAssetID, "abc", KeyVersion, int64(3), KeyPath, "/tmp/my assets", KeyDurationMs, 1.5)

	line := buf.String()
	assert.Contains(t, line, "asset_id=abc")
	assert.Contains(t, line, "version=3")
	assert.Contains(t, line, `path="/tmp/my assets"`)
	assert.Contains(t, line, "duration_ms=1.500")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormat_Groups(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")

	With("component", "registry").WithGroup("store").Info("configured", "kind", "Folder")

	line := buf.String()
	assert.Contains(t, line, "component=registry")
	assert.Contains(t, line, "store.kind=Folder")
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("json")

	Info("deleted asset", Kind("AzureBlob"), AssetID("abc"), Err(nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "deleted asset", entry["msg"])
	assert.Equal(t, "AzureBlob", entry[KeyKind])
	assert.Equal(t, "abc", entry[KeyAssetID])
	assert.NotContains(t, entry, KeyError)
}

func TestSetFormat_IgnoresUnknown(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("json")
	SetFormat("xml")

	Info("still json")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestContextLogging(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("DEBUG")

	lc := NewLogContext("upload", "MongoDb").WithAsset("abc").WithTrace("t-1", "s-1")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "asset stored", KeyBytes, 42)

	line := buf.String()
	traceIdx := strings.Index(line, "trace_id=t-1")
	bytesIdx := strings.Index(line, "bytes=42")
	require.GreaterOrEqual(t, traceIdx, 0)
	require.GreaterOrEqual(t, bytesIdx, 0)
	assert.Less(t, traceIdx, bytesIdx, "context fields come first")
	assert.Contains(t, line, "operation=upload")
	assert.Contains(t, line, "kind=MongoDb")
	assert.Contains(t, line, "asset_id=abc")

	buf.Reset()
	WarnCtx(context.Background(), "no context")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestLogContext(t *testing.T) {
	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Nil(t, nilCtx.WithAsset("x"))
	assert.Zero(t, nilCtx.DurationMs())
	assert.Nil(t, FromContext(nil)) //nolint:staticcheck

	lc := NewLogContext("download", "Folder")
	clone := lc.WithAsset("abc")
	assert.Empty(t, lc.AssetID, "original is not modified")
	assert.Equal(t, "abc", clone.AssetID)

	lc.StartTime = time.Now().Add(-10 * time.Millisecond)
	assert.GreaterOrEqual(t, lc.DurationMs(), 10.0)
}

func TestPrintfStyleLogging(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("DEBUG")

	Debugf("debug %d", 1)
	Infof("info %s", "two")
	Warnf("warn %v", 3.5)
	Errorf("error %q", "four")

	out := buf.String()
	assert.Contains(t, out, "debug 1")
	assert.Contains(t, out, "info two")
	assert.Contains(t, out, "warn 3.5")
	assert.Contains(t, out, `error "four"`)
}

func TestInit_File(t *testing.T) {
	captureOutput(t)

	path := filepath.Join(t.TempDir(), "assetd.log")
	require.NoError(t, Init(Config{Level: "INFO", Format: "json", Output: path}))

	Info("to file", Err(errors.New("boom")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"boom"`)
}

func TestInit_BadFile(t *testing.T) {
	captureOutput(t)

	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "log")})
	assert.Error(t, err)
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("message", "goroutine", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 500)
}

func TestColorTextHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)

	slog.New(h).Error("colored", "k", "v")
	assert.Contains(t, buf.String(), colorRed+"ERROR"+colorReset)
	assert.Contains(t, buf.String(), colorCyan+"k"+colorReset+"=v")
}

func BenchmarkLogDisabled(b *testing.B) {
	InitWithWriter(&bytes.Buffer{}, "ERROR", "text", false)
	for i := 0; i < b.N; i++ {
		Debug("disabled", KeyAssetID, "abc")
	}
}

func BenchmarkLogJSON(b *testing.B) {
	InitWithWriter(&bytes.Buffer{}, "INFO", "json", false)
	for i := 0; i < b.N; i++ {
		Info("enabled", KeyAssetID, "abc", KeyBytes, i)
	}
}
