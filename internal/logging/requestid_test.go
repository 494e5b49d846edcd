package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if !strings.HasPrefix(id, "agent-") {
		t.Errorf("GenerateRequestID() = %q, want agent- prefix", id)
	}

	// Verify uniqueness
	id2 := GenerateRequestID()
	if id == id2 {
		t.Errorf("GenerateRequestID() generated duplicate IDs: %s", id)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	id := "test1234"

	// Without ID
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID(empty context) = %q, want empty string", got)
	}

	// With ID
	ctx = WithRequestID(ctx, id)
	if got := GetRequestID(ctx); got != id {
		t.Errorf("GetRequestID() = %q, want %q", got, id)
	}
}

func TestEnsureRequestID_KeepsExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "keep-me")
	_, id := EnsureRequestID(ctx)
	if id != "keep-me" {
		t.Errorf("EnsureRequestID() = %q, want keep-me", id)
	}

	ctx, id = EnsureRequestID(context.Background())
	if id == "" || GetRequestID(ctx) != id {
		t.Errorf("EnsureRequestID() did not inject a generated id")
	}
}

func TestGetOrGenerateRequestID(t *testing.T) {
	req := httptest.NewRequest("POST", "/message", nil)
	req.Header.Set(HeaderRequestID, "client-provided-id")
	if got := GetOrGenerateRequestID(req); got != "client-provided-id" {
		t.Errorf("Expected 'client-provided-id', got '%s'", got)
	}

	req = httptest.NewRequest("POST", "/message", nil)
	if got := GetOrGenerateRequestID(req); !strings.HasPrefix(got, "agent-") {
		t.Errorf("Expected generated id, got '%s'", got)
	}
}

func TestNew_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") {
		t.Errorf("log line missing request id: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
