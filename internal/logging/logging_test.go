package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "debug", Format: "json"})

	log.Debug(context.Background(), "grid built",
		String("grid_type", "metric"),
		Int("points", 42),
		Float64("dfreq", 0.25),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "grid built" || rec["level"] != "DEBUG" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["grid_type"] != "metric" || rec["points"] != float64(42) || rec["dfreq"] != 0.25 {
		t.Fatalf("fields not encoded: %v", rec)
	}
	if rec["error"] != "boom" {
		t.Fatalf("error field = %v, want boom", rec["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Config{Level: "warn"})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestErrNil(t *testing.T) {
	if f := Err(nil); f.Key != "error" || f.Value != "" {
		t.Fatalf("Err(nil) = %+v", f)
	}
}

func TestEnsureScanIDStable(t *testing.T) {
	ctx, id := EnsureScanID(context.Background())
	if len(id) != 16 {
		t.Fatalf("scan id %q, want 16 hex characters", id)
	}
	ctx2, id2 := EnsureScanID(ctx)
	if id2 != id || ScanIDFromContext(ctx2) != id {
		t.Fatalf("EnsureScanID replaced existing id %q with %q", id, id2)
	}
}

func TestWithScanLoggerAddsField(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, Config{Format: "json"})

	ctx := ContextWithScanID(context.Background(), "abc123")
	ctx, log := WithScanLogger(ctx, base)
	log.Info(ctx, "scan started")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["scan_id"] != "abc123" {
		t.Fatalf("scan_id = %v, want abc123", rec["scan_id"])
	}
}

func TestWithScanLoggerNilBase(t *testing.T) {
	ctx, log := WithScanLogger(context.Background(), nil)
	if log == nil {
		t.Fatal("expected noop logger")
	}
	if ScanIDFromContext(ctx) == "" {
		t.Fatal("expected scan id on context")
	}
	log.Error(ctx, "dropped")
}

func TestContextLogger(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatal("expected nil logger on empty context")
	}
	l := Noop()
	ctx := ContextWithLogger(context.Background(), l)
	if LoggerFromContext(ctx) != l {
		t.Fatal("logger not stored on context")
	}
	if LoggerFromContext(ContextWithLogger(context.Background(), nil)) == nil {
		t.Fatal("nil logger should be replaced by noop")
	}
}
