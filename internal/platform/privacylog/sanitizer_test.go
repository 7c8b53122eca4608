package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v (%q)", err, buf.String())
	}
	return payload
}

func TestSanitizingHandlerRedactsSensitiveAndFingerprintsPeers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil)))
	logger.Info("client connected", "remote_addr", "127.0.0.1:5555", "session_cookie", "abc", "Authorization", "Bearer x", "conn_id", 7)

	payload := decodeLine(t, &buf)
	if _, ok := payload["remote_addr"]; ok {
		t.Fatal("remote_addr should not be present in plain form")
	}
	fp, _ := payload["remote_addr_fp"].(string)
	if !strings.HasPrefix(fp, "fp_") {
		t.Fatalf("expected fingerprint, got %q", fp)
	}
	if got := payload["session_cookie"]; got != redactedValue {
		t.Fatalf("expected redacted cookie, got %v", got)
	}
	if got := payload["Authorization"]; got != redactedValue {
		t.Fatalf("expected redacted authorization, got %v", got)
	}
	if got := payload["conn_id"]; got != float64(7) {
		t.Fatalf("expected untouched conn_id, got %v", got)
	}
}

func TestSanitizingHandlerTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandlerWithLimit(slog.NewJSONHandler(&buf, nil), 8))
	long := strings.Repeat("é", 20)
	logger.Info("event received", "event", "short", "title", long, "args", []any{long}, "error", errors.New(long))

	payload := decodeLine(t, &buf)
	if got := payload["event"]; got != "short" {
		t.Fatalf("short value changed: %v", got)
	}
	want := strings.Repeat("é", 8) + truncatedMark
	if got := payload["title"]; got != want {
		t.Fatalf("expected truncated title %q, got %v", want, got)
	}
	args, ok := payload["args"].(string)
	if !ok || !strings.HasSuffix(args, truncatedMark) {
		t.Fatalf("expected truncated args string, got %#v", payload["args"])
	}
	if got := payload["error"]; got != want {
		t.Fatalf("expected truncated error %q, got %v", want, got)
	}
}

func TestSanitizingHandlerAppliesToGroupsAndWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil))).
		With("api_token", "t0ken").
		With(slog.Group("peer", slog.String("remote_addr", "10.0.0.1:1"), slog.String("proto", "json")))
	logger.Info("ok")

	payload := decodeLine(t, &buf)
	if got := payload["api_token"]; got != redactedValue {
		t.Fatalf("expected redacted token, got %v", got)
	}
	peer, ok := payload["peer"].(map[string]any)
	if !ok {
		t.Fatalf("expected peer group, got %#v", payload["peer"])
	}
	if _, ok := peer["remote_addr_fp"]; !ok {
		t.Fatalf("expected fingerprinted group member, got %#v", peer)
	}
	if peer["proto"] != "json" {
		t.Fatalf("unexpected group member: %#v", peer)
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be disabled")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelWarn, "msg", 0)
	rec.AddAttrs(slog.String("password", "hunter2"))
	if err := h.WithGroup("g").Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("password leaked: %s", buf.String())
	}
	if WrapHandler(nil) != nil {
		t.Fatal("expected nil for nil handler")
	}
}

func TestFingerprintIDIsStableWithinProcess(t *testing.T) {
	a := FingerprintID(" 127.0.0.1:80 ")
	b := FingerprintID("127.0.0.1:80")
	if a == "" || a != b {
		t.Fatalf("expected stable fingerprint, got %q vs %q", a, b)
	}
	if FingerprintID("  ") != "" {
		t.Fatal("expected empty fingerprint for blank input")
	}
	if Truncate("abc", 0) != "abc" {
		t.Fatal("non-positive limit must not truncate")
	}
}
