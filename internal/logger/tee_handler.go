package logger

import (
	"context"
	"errors"
	"log/slog"
)

// TeeHandler writes each record to the local handler and, when enabled for
// the record's level, to the remote one as well. A remote failure does not
// hide the local write.
type TeeHandler struct {
	local  slog.Handler
	remote slog.Handler
}

// NewTeeHandler pairs a local handler with a remote sink. A nil remote
// returns local unchanged.
func NewTeeHandler(local, remote slog.Handler) slog.Handler {
	if remote == nil {
		return local
	}
	return &TeeHandler{local: local, remote: remote}
}

func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.remote.Enabled(ctx, level)
}

func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var localErr, remoteErr error
	if h.local.Enabled(ctx, r.Level) {
		localErr = h.local.Handle(ctx, r.Clone())
	}
	if h.remote.Enabled(ctx, r.Level) {
		remoteErr = h.remote.Handle(ctx, r.Clone())
	}
	return errors.Join(localErr, remoteErr)
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TeeHandler{local: h.local.WithAttrs(attrs), remote: h.remote.WithAttrs(attrs)}
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	return &TeeHandler{local: h.local.WithGroup(name), remote: h.remote.WithGroup(name)}
}
