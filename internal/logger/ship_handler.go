package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultShipQueueSize    = 1024
	defaultShipFlushTimeout = 5 * time.Second
)

// ShipOptions tunes the queue in front of the remote sink.
type ShipOptions struct {
	QueueSize    int
	FlushTimeout time.Duration
}

type shipment struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper owns the queue and the single goroutine draining it. It is shared
// by every handler derived through WithAttrs/WithGroup.
type shipper struct {
	mu           sync.RWMutex // guards closed against concurrent sends
	closed       bool
	queue        chan shipment
	done         chan struct{}
	dropped      atomic.Uint64
	flushTimeout time.Duration
}

func newShipper(opts ShipOptions) *shipper {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultShipQueueSize
	}
	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = defaultShipFlushTimeout
	}

	s := &shipper{
		queue:        make(chan shipment, size),
		done:         make(chan struct{}),
		flushTimeout: timeout,
	}
	go s.drain()
	return s
}

func (s *shipper) drain() {
	defer close(s.done)
	for item := range s.queue {
		_ = item.handler.Handle(item.ctx, item.record)
	}
}

func (s *shipper) send(item shipment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- item:
	default:
		s.dropped.Add(1)
	}
}

func (s *shipper) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.flushTimeout)
		defer cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShipHandler hands records to a background goroutine so a slow remote
// sink never delays a request. When the queue is full the record is dropped
// and counted.
type ShipHandler struct {
	shipper *shipper
	handler slog.Handler
}

// NewShipHandler starts the background goroutine feeding handler.
func NewShipHandler(handler slog.Handler, opts ShipOptions) *ShipHandler {
	return &ShipHandler{shipper: newShipper(opts), handler: handler}
}

func (h *ShipHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle queues r. It never returns an error.
func (h *ShipHandler) Handle(ctx context.Context, r slog.Record) error {
	h.shipper.send(shipment{ctx: context.WithoutCancel(ctx), record: r.Clone(), handler: h.handler})
	return nil
}

func (h *ShipHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ShipHandler{shipper: h.shipper, handler: h.handler.WithAttrs(attrs)}
}

func (h *ShipHandler) WithGroup(name string) slog.Handler {
	return &ShipHandler{shipper: h.shipper, handler: h.handler.WithGroup(name)}
}

// Dropped reports how many records never reached the remote sink because
// the queue was full.
func (h *ShipHandler) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.shipper.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain, bounded
// by ctx or the flush timeout.
func (h *ShipHandler) Shutdown(ctx context.Context) error {
	if h == nil {
		return nil
	}
	return h.shipper.close(ctx)
}
