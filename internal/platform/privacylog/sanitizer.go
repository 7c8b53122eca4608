package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	redactedValue  = "[REDACTED]"
	truncatedMark  = "...(truncated)"
	DefaultMaxSize = 256
)

var (
	bootNonce         = randomNonce()
	fingerprintKeys   = map[string]struct{}{"remote_addr": {}, "client_ip": {}, "origin": {}}
	sensitiveKeyParts = []string{"token", "secret", "password", "cookie", "authorization", "auth"}
)

// SanitizingHandler rewrites attributes before they reach the wrapped handler:
// credentials are redacted, peer addresses are replaced by a per-process
// fingerprint and oversized values are cut to maxSize runes.
type SanitizingHandler struct {
	next    slog.Handler
	maxSize int
}

func WrapHandler(next slog.Handler) slog.Handler {
	return WrapHandlerWithLimit(next, DefaultMaxSize)
}

func WrapHandlerWithLimit(next slog.Handler, maxSize int) slog.Handler {
	if next == nil {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &SanitizingHandler{next: next, maxSize: maxSize}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.sanitize(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		clean = append(clean, h.sanitize(attr))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(clean), maxSize: h.maxSize}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name), maxSize: h.maxSize}
}

func (h *SanitizingHandler) sanitize(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	lowerKey := strings.ToLower(key)
	value := attr.Value.Resolve()
	switch {
	case isSensitiveKey(lowerKey):
		return slog.String(key, redactedValue)
	case shouldFingerprintKey(lowerKey):
		return slog.String(key+"_fp", FingerprintID(value.String()))
	}
	switch value.Kind() {
	case slog.KindGroup:
		group := value.Group()
		clean := make([]any, 0, len(group))
		for _, member := range group {
			clean = append(clean, h.sanitize(member))
		}
		return slog.Group(key, clean...)
	case slog.KindString:
		return slog.String(key, Truncate(value.String(), h.maxSize))
	case slog.KindAny:
		if _, isErr := value.Any().(error); isErr {
			return slog.String(key, Truncate(value.String(), h.maxSize))
		}
		rendered := fmt.Sprint(value.Any())
		if utf8.RuneCountInString(rendered) > h.maxSize {
			return slog.String(key, Truncate(rendered, h.maxSize))
		}
	}
	return slog.Attr{Key: key, Value: value}
}

// Truncate cuts value to at most maxRunes runes plus a marker.
func Truncate(value string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(value) <= maxRunes {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxRunes]) + truncatedMark
}

// FingerprintID hashes value with a nonce chosen at process start, so the same
// peer is correlatable within one run only.
func FingerprintID(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed + "|" + bootNonce))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func shouldFingerprintKey(key string) bool {
	_, ok := fingerprintKeys[key]
	return ok
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "fallback_nonce"
	}
	return hex.EncodeToString(buf)
}
