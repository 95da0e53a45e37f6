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
)

func newTestLogger(buf *bytes.Buffer, format logFormat) (*slog.Logger, *lineWriter) {
	w := newLineWriter([]io.Writer{buf})
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   w,
		format:   format,
		keyOrder: defaultKeyOrder,
	})
	return slog.New(h), w
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log, w := newTestLogger(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), buf.String())
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	log, w := newTestLogger(buf, formatJSON)
	ctx := WithRID(context.Background(), "12:34:56")

	LogEvent(ctx, log.With("component", "store"), slog.LevelError, "reviews.persist",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("disk full")),
		slog.Duration("duration", 1500*time.Microsecond),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"store"`, `"event":"reviews.persist"`, `"status":"fail"`, `"rid":"c.y.1k"`, `"rid_full":"12:34:56"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"err":"disk full"`) || !strings.Contains(line, `"duration_ms":2`) {
		t.Fatalf("missing err or duration in %s", line)
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	log, w := newTestLogger(buf, formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "handler.handled",
		slog.String("outcome", "weird"),
		slog.String("empty", ""),
	)
	_ = w.Flush()
	line := buf.String()
	if strings.Contains(line, "outcome=") || strings.Contains(line, "empty=") {
		t.Fatalf("expected outcome and empty fields pruned, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if n, d := parseRatioSpec("2/10"); n != 2 || d != 10 {
		t.Fatalf("parse = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("20"); n != 1 || d != 20 {
		t.Fatalf("parse = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\nd", 10); got != "abc\nd" {
		t.Fatalf("sanitize = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("limit = %q", got)
	}
}
