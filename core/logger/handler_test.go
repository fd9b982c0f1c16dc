package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/zalogbot/core/config"
)

func captureLine(t *testing.T, format logFormat, ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	log := slog.New(handler).With("component", component)
	LogEvent(ctx, log, level, event, attrs...)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := captureLine(t, formatKV, ctx, CompSearch, slog.LevelInfo, "search.step",
		slog.String("status", "ok"),
		slog.String("step", "model"),
	)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=search", "event=search.step", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "step=model"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	line := captureLine(t, formatJSON, ctx, CompStore, slog.LevelError, "store.append",
		slog.String("status", "fail"),
		Err(errors.New("boom")),
		slog.String("err_code", "STORE_FAIL"),
	)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"store"`, `"event":"store.append"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := BuildRID(123, 456, 789)
	ctx := WithRID(context.Background(), rawRID)

	kv := captureLine(t, formatKV, ctx, CompApp, slog.LevelInfo, "rid.test")
	if !strings.Contains(kv, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", kv)
	}
	if strings.Contains(kv, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", kv)
	}

	js := captureLine(t, formatJSON, ctx, CompApp, slog.LevelInfo, "rid.test")
	if !strings.Contains(js, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", js)
	}
	if !strings.Contains(js, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", js)
	}
	if !strings.Contains(js, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", js)
	}
}

func TestStructuredHandlerNormalizesValues(t *testing.T) {
	line := captureLine(t, formatKV, context.Background(), CompIntake, slog.LevelDebug, "intake.step",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("outcome", "Committed"),
		slog.String("cache", "bogus"),
		slog.String("brand", "Chevrolet Tracker"),
		slog.String("empty", ""),
	)
	for _, want := range []string{"duration_ms=2", "outcome=committed", `brand="Chevrolet Tracker"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
	for _, unwanted := range []string{"cache=", "empty="} {
		if strings.Contains(line, unwanted) {
			t.Fatalf("did not expect %s in %s", unwanted, line)
		}
	}
}

func TestSettingsFrom(t *testing.T) {
	s := settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Profile:     "Dev",
		Level:       "warning",
		KeysOrder:   "event, ts",
		DebugSample: "2/10",
	}})
	if s.format != formatKV {
		t.Fatalf("format = %s, want kv for dev profile", s.format)
	}
	if s.level != slog.LevelWarn {
		t.Fatalf("level = %v", s.level)
	}
	if len(s.keyOrder) != 2 || s.keyOrder[0] != "event" {
		t.Fatalf("keyOrder = %v", s.keyOrder)
	}
	if s.sampleNum != 2 || s.sampleDen != 10 {
		t.Fatalf("sample = %d/%d", s.sampleNum, s.sampleDen)
	}

	def := settingsFrom(nil)
	if def.format != formatJSON || def.level != slog.LevelInfo || def.profile != "prod" {
		t.Fatalf("unexpected defaults: %+v", def)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("passed = %d, want 3", passed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow")
	}
}

func TestLoggingBeforeInitIsSafe(t *testing.T) {
	Info(context.Background(), CompApp, "noop")
	Error(context.TODO(), CompStore, "noop", Err(nil))
	if Component("") == nil {
		t.Fatal("expected base logger")
	}
}
