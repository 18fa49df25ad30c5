package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestContextWithLogger_Roundtrip(t *testing.T) {
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := ContextWithLogger(context.Background(), lg)
	if got := LoggerFromContext(ctx); got != lg {
		t.Fatalf("logger not returned from context")
	}
}

func TestLoggerFromContext_Fallbacks(t *testing.T) {
	if LoggerFromContext(context.Background()) == nil {
		t.Fatalf("expected default logger for empty context")
	}
	if LoggerFromContext(nil) == nil { //nolint:staticcheck // nil context is part of the contract
		t.Fatalf("expected default logger for nil context")
	}
	// nil logger must not be stored
	ctx := ContextWithLogger(context.Background(), nil)
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("expected default logger after nil attach")
	}
}

func TestRequestIDRoundtrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("got %q, want req-1", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	// empty id is ignored
	ctx = ContextWithRequestID(context.Background(), "")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("expected empty request id after empty attach, got %q", got)
	}
}
