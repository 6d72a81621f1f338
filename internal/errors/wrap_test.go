package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestOpWrap(t *testing.T) {
	op := Op{Module: "program", Name: "decode"}

	if got := op.Wrap(nil, "invalid JSON payload"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}

	cause := errors.New("unexpected end of JSON input")
	wrapped := op.Wrap(cause, "invalid JSON payload (%d bytes)", 12)

	var opErr *OpError
	if !errors.As(wrapped, &opErr) {
		t.Fatalf("Wrap() = %T, want *OpError", wrapped)
	}
	if opErr.Op != op {
		t.Errorf("Op = %v, want %v", opErr.Op, op)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	want := "[program:decode] invalid JSON payload (12 bytes): unexpected end of JSON input"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}

func TestOpWrap_PercentWithoutArgs(t *testing.T) {
	wrapped := Op{Module: "source", Name: "fetch"}.Wrap(errors.New("x"), "100% unreachable")
	if got := Summary(wrapped); got != "100% unreachable" {
		t.Errorf("Summary() = %q, want the summary verbatim", got)
	}
}

func TestSummary(t *testing.T) {
	op := Op{Module: "program", Name: "decode"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"plain error", errors.New("connection refused"), "connection refused"},
		{"op error", op.Wrap(errors.New("x"), "invalid JSON payload"), "invalid JSON payload"},
		{"op error behind fmt wrap", fmt.Errorf("load: %w", op.Wrap(errors.New("x"), "invalid JSON payload")), "invalid JSON payload"},
		{"source error keeps its message", NewSourceError("file:data/programs.json", 0, ErrNotFound), "source error (source=file:data/programs.json): resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.err); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
