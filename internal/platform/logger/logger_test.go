package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValueRedactsSensitiveKeys(t *testing.T) {
	for _, key := range []string{"token", "password", "api_key", "refresh_token", "email"} {
		if got := sanitizeValue(key, "super-sensitive"); got != "[REDACTED]" {
			t.Fatalf("key %q: got %v, want [REDACTED]", key, got)
		}
	}
}

func TestSanitizeValueHashesIdentifiers(t *testing.T) {
	got := sanitizeValue("user_id", "4b7c1e90-0000-0000-0000-000000000000")
	s, ok := got.(string)
	if !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("got %v, want hash: prefix", got)
	}
	again := sanitizeValue("user_id", "4b7c1e90-0000-0000-0000-000000000000")
	if got != again {
		t.Fatal("hashing must be deterministic")
	}
}

func TestSanitizeValuePassesPlainValues(t *testing.T) {
	if got := sanitizeValue("status", 200); got != 200 {
		t.Fatalf("got %v, want 200", got)
	}
}

func TestSanitizeValueCatchesJWTShapedStrings(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if got := sanitizeValue("payload", jwt); got != "[REDACTED]" {
		t.Fatalf("got %v, want [REDACTED]", got)
	}
}

func TestSanitizeMapAppliesNestedKeys(t *testing.T) {
	out := sanitizeMap(map[string]interface{}{
		"Password": "hunter2",
		"status":   "ok",
	})
	if out["Password"] != "[REDACTED]" {
		t.Fatalf("nested password not redacted: %v", out["Password"])
	}
	if out["status"] != "ok" {
		t.Fatalf("plain value changed: %v", out["status"])
	}
}
