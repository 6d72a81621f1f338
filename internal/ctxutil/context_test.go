package ctxutil

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetRequestID(ctx); ok {
		t.Error("expected no request ID in empty context")
	}

	ctx = WithRequestID(ctx, "req-123")
	got, ok := GetRequestID(ctx)
	if !ok || got != "req-123" {
		t.Errorf("GetRequestID() = %q, %v; want %q, true", got, ok, "req-123")
	}
}
