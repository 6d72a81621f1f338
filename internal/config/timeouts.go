// Package config provides centralized timeout constants for the application.
//
// The board loads its data once at startup and renders everything else from
// memory, so the only slow path is the initial fetch. HTTP timeouts only
// need to cover rendering a page of cards.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Requests carry at most a query string.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout for a full page render.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Data source timeouts
const (
	// FetchRequest is the default timeout for the single data source retrieval.
	// The retrieval is never retried, so it gets a generous budget.
	FetchRequest = 30 * time.Second
)

// Background intervals
const (
	// RateLimiterCleanupInterval is how often idle rate limiter buckets are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second

	// SentryFlush bounds how long shutdown waits for queued error reports.
	SentryFlush = 2 * time.Second
)
