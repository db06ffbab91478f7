package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info message should be written")
	}

	buf.Reset()
	New(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug message should be written when debug is enabled")
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	WithOperation(New(&buf, false), "classify.batch").Info("done")
	if !strings.Contains(buf.String(), "operation=classify.batch") {
		t.Errorf("expected operation attribute, got %q", buf.String())
	}
}

func TestWithAccount(t *testing.T) {
	logger := slog.Default()
	result := WithAccount(logger, "work")
	if result == nil {
		t.Error("WithAccount returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("gmail.list"), KeyOperation, "gmail.list"},
		{"account", Account("work"), KeyAccount, "work"},
		{"message id", MessageID("18c2f"), KeyMessageID, "18c2f"},
		{"category", Category("Work"), KeyCategory, "Work"},
		{"source", Source("cache"), KeySource, "cache"},
		{"status", Status("success"), KeyStatus, "success"},
		{"duration", Duration(1500 * time.Millisecond), KeyDuration, "1.5s"},
		{"trace id", TraceID("4bf92f3577b34da6a3ce929d0e0e4736"), KeyTraceID, "4bf92f3577b34da6a3ce929d0e0e4736"},
		{"sender domain", SenderDomain(`"Boss" <boss@Company.com>`), KeyDomain, "company.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	// Test with error
	err := errors.New("test error")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Test with nil - should return an empty group that slog will omit
	attr = Err(nil)
	// Empty Group has empty key
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		email    string
		wantLen  int  // Expected length of result (0 for empty)
		hasValue bool // Whether result should have a value
	}{
		{"jane@example.com", 21, true}, // "user:" + 16 hex chars
		{"Jane Doe <jane@example.com>", 21, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			result := AnonymizeEmail(tt.email)
			if tt.hasValue {
				if len(result) != tt.wantLen {
					t.Errorf("AnonymizeEmail(%q) length = %d, want %d", tt.email, len(result), tt.wantLen)
				}
				if result[:5] != "user:" {
					t.Errorf("AnonymizeEmail(%q) should start with 'user:', got %q", tt.email, result)
				}
			} else if result != "" {
				t.Errorf("AnonymizeEmail(%q) = %q, want empty string", tt.email, result)
			}
		})
	}

	// Display names and case do not change the hash
	if AnonymizeEmail("jane@example.com") != AnonymizeEmail(`"Jane" <JANE@example.com>`) {
		t.Error("AnonymizeEmail should hash the bare, lower-cased address")
	}

	// Test different emails produce different hashes
	if AnonymizeEmail("test@example.com") == AnonymizeEmail("other@example.com") {
		t.Error("Different emails should produce different hashes")
	}
}

func TestSenderHash(t *testing.T) {
	attr := SenderHash("boss@company.com")
	if attr.Key != KeySender {
		t.Errorf("SenderHash key = %q, want %q", attr.Key, KeySender)
	}
	if len(attr.Value.String()) != 21 {
		t.Errorf("SenderHash value length = %d, want 21", len(attr.Value.String()))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := SanitizeToken(tt.token)
			if result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"Jane Doe <jane@Example.com>", "example.com"},
		{"Unknown Sender", ""},
		{"invalid", ""},
		{"", ""},
		{"@", ""},
		{"user@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			result := ExtractDomain(tt.email)
			if result != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, result, tt.expected)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	if got := Address(`"Boss" <boss@company.com>`); got != "boss@company.com" {
		t.Errorf("Address() = %q, want %q", got, "boss@company.com")
	}
	if got := Address("  not an address "); got != "not an address" {
		t.Errorf("Address() = %q, want trimmed input", got)
	}
}
