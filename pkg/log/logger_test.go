package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	zkerrors "github.com/YuminosukeSato/zillowkit/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("cache loaded", CachePathKey, "zillow.csv", SamplesKey, 3)
	logger.Warn("county missing")
	logger.Error("fetch failed", fmt.Errorf("dial tcp: refused"), SourceKey, "mysql")

	if logger.ContainsMessage("hidden") {
		t.Error("debug message should be filtered at info level")
	}
	for _, msg := range []string{"cache loaded", "county missing", "fetch failed"} {
		if !logger.ContainsMessage(msg) {
			t.Errorf("message %q not captured", msg)
		}
	}
	if !logger.ContainsField(CachePathKey, "zillow.csv") {
		t.Error("cache path field not captured")
	}
	if !logger.ContainsField(SamplesKey, 3.0) {
		t.Error("samples field not captured")
	}
	if !logger.ContainsField(ErrAttrKey, "dial tcp: refused") {
		t.Error("leading error not captured under error key")
	}
	if !logger.ContainsField(SourceKey, "mysql") {
		t.Error("fields after leading error not captured")
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	scoped := logger.With(ComponentKey, "prepare", OperationKey, OperationPrepare)
	scoped.Info("rows dropped", RowsDroppedKey, 2)

	if !logger.ContainsField(ComponentKey, "prepare") {
		t.Error("component context not found")
	}
	if !logger.ContainsField(RowsDroppedKey, 2.0) {
		t.Error("rows dropped field not found")
	}

	logger.Clear()
	logger.Info("plain")
	if logger.ContainsField(ComponentKey, "prepare") {
		t.Error("parent logger must not inherit fields from With")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestTestLoggerConcurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With("worker", i).Info("tick")
		}(i)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("got %d entries, want 10", len(entries))
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)

	logger := p.GetLoggerWithName("metrics")
	logger.Debug("hidden")
	logger.Info("evaluated", SSEKey, 10.0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["message"] != "evaluated" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[ComponentKey] != "metrics" {
		t.Errorf("component = %v", entry[ComponentKey])
	}
	if entry[SSEKey] != 10.0 {
		t.Errorf("sse = %v", entry[SSEKey])
	}

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled")
	}
}

func TestZerologProviderErrorStack(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelDebug)

	p.GetLogger().Error("failed", zkerrors.NewValueError("RegressionErrors", "empty vector"))

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(fmt.Sprint(entry[ErrAttrKey]), "empty vector") {
		t.Errorf("error field = %v", entry[ErrAttrKey])
	}
}

func TestZerologProviderRouteWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)
	p.RouteWarnings()
	defer zkerrors.SetZerologWarnFunc(nil)

	zkerrors.Warn(zkerrors.NewDataConversionWarning("NaN", "0", "missing county"))

	out := buf.String()
	if !strings.Contains(out, `"type":"DataConversionWarning"`) {
		t.Errorf("warning object not embedded: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning not logged at warn level: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetProvider(t *testing.T) {
	p, _ := NewTestLoggerProvider(LevelDebug)
	SetProvider(p)
	defer SetProvider(nil)

	GetLoggerWithName("acquire").Info("hello")

	if !p.Logger().ContainsField(ComponentKey, "acquire") {
		t.Error("package logger did not use the installed provider")
	}
}
