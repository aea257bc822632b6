// Package privacylog keeps secret material out of structured logs. Key
// bytes, passwords and mnemonics are redacted outright; identity IDs are
// replaced with a per-boot fingerprint so log lines correlate within one
// run without being linkable across runs.
package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

var (
	bootNonce = randomNonce()

	// Attribute keys never logged in plain form.
	fingerprintedIDs = map[string]struct{}{
		"identity_id": {},
		"record_id":   {},
		"key_id":      {},
	}

	// Substrings marking an attribute as secret-bearing.
	sensitiveKeyParts = []string{
		"password", "passphrase", "mnemonic", "seed",
		"secret", "private", "token", "auth",
	}
)

// SanitizingHandler wraps another slog.Handler and rewrites attributes
// before they reach it.
type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		sanitized = append(sanitized, SanitizeAttr(attr))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(sanitized)}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

// SanitizeAttr rewrites a single attribute: secret-bearing keys are
// redacted, identity-like keys are fingerprinted, groups recurse.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	lowerKey := strings.ToLower(key)
	if isSensitiveKey(lowerKey) {
		return slog.String(key, redactedValue)
	}
	if hasFingerprintedID(lowerKey) {
		return slog.String(key+"_fp", FingerprintID(attr.Value.String()))
	}
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		sanitized := make([]any, 0, len(members))
		for _, member := range members {
			sanitized = append(sanitized, SanitizeAttr(member))
		}
		return slog.Group(key, sanitized...)
	}
	return attr
}

// SanitizeArgs applies the same rules to alternating key/value logger args.
func SanitizeArgs(args ...any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			out = append(out, args[i])
			continue
		}
		value := args[i+1]
		i++
		lowerKey := strings.ToLower(strings.TrimSpace(key))
		switch {
		case isSensitiveKey(lowerKey):
			out = append(out, key, redactedValue)
		case hasFingerprintedID(lowerKey):
			out = append(out, key+"_fp", FingerprintID(fmt.Sprint(value)))
		default:
			out = append(out, key, value)
		}
	}
	return out
}

// FingerprintID hashes an identifier with the boot nonce so values are
// stable within a process lifetime only.
func FingerprintID(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed + "|" + bootNonce))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func hasFingerprintedID(key string) bool {
	_, ok := fingerprintedIDs[key]
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
		return "static-fallback-nonce"
	}
	return hex.EncodeToString(buf)
}
