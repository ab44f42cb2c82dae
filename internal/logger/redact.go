// internal/logger/redact.go
//
// PHI and secret redaction for log fields.
//
// Context
// -------
// Redaction happens at the core level, after the sugared logger has turned
// key/value pairs into fields and before any encoder sees them.  Keys are
// matched case-insensitively by substring:
//
//   • Secret keys (token, secret, password, api_key, authorization) are
//     replaced with "[REDACTED]".
//   • Personal keys (email, name, phone, dob) are replaced with a short
//     SHA-256 digest, "hash:<12 hex>", so the same patient still
//     correlates across lines.
//
// Field values of any type are redacted; only the key decides.

package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

var (
	secretKeys   = []string{"token", "secret", "password", "api_key", "apikey", "authorization"}
	personalKeys = []string{"email", "name", "phone", "dob"}
)

type redactCore struct {
	zapcore.Core
}

// NewRedactCore wraps inner so every field passes through Redact.
func NewRedactCore(inner zapcore.Core) zapcore.Core { return redactCore{inner} }

func (c redactCore) With(fields []zapcore.Field) zapcore.Core {
	return redactCore{c.Core.With(redactAll(fields))}
}

func (c redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, redactAll(fields))
}

func redactAll(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = Redact(f)
	}
	return out
}

// Redact returns f unchanged or with its value masked, depending on its key.
func Redact(f zapcore.Field) zapcore.Field {
	key := strings.ToLower(f.Key)
	switch {
	case matches(key, secretKeys):
		return zap.String(f.Key, redacted)
	case matches(key, personalKeys):
		return zap.String(f.Key, digest(fieldValue(f)))
	default:
		return f
	}
}

func matches(key string, list []string) bool {
	for _, k := range list {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

func fieldValue(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.StringerType, zapcore.ReflectType, zapcore.ErrorType:
		return fmt.Sprint(f.Interface)
	default:
		return fmt.Sprint(f.Integer, f.Interface)
	}
}

func digest(v string) string {
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
