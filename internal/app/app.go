// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/programs-board/internal/board"
	"github.com/garyellow/programs-board/internal/buildinfo"
	"github.com/garyellow/programs-board/internal/config"
	"github.com/garyellow/programs-board/internal/ctxutil"
	"github.com/garyellow/programs-board/internal/logger"
	"github.com/garyellow/programs-board/internal/metrics"
	"github.com/garyellow/programs-board/internal/r2client"
	"github.com/garyellow/programs-board/internal/ratelimit"
	"github.com/garyellow/programs-board/internal/sentry"
	"github.com/garyellow/programs-board/internal/source"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	board     *board.Board
	container *board.MemoryContainer
	limiter   *ratelimit.KeyedLimiter // nil when rate limiting is disabled
	router    *gin.Engine
	server    *http.Server
	wg        sync.WaitGroup // Tracks the background load
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "programs-board")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls pick up request IDs through the
	// context handler.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
	} else if sentry.IsEnabled() {
		log.WithField("host", cfg.SentryHost).Info("Sentry error reporting enabled")
	}

	src, err := source.Resolve(ctx, source.Config{
		Location: cfg.DataSource,
		BaseURL:  cfg.DataBaseURL,
		Timeout:  cfg.FetchTimeout,
		R2: r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("data source: %w", err)
	}
	log.WithField("source", src.String()).WithField("kind", string(src.Kind())).Info("Data source configured")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)

	gin.SetMode(gin.ReleaseMode)
	app := newApplication(cfg, log, registry, src)
	log.Info("Initialization complete")
	return app, nil
}

// newApplication wires the board, router and server around an existing
// logger, registry and data source.
func newApplication(cfg *config.Config, log *logger.Logger, registry *prometheus.Registry, src source.Source) *Application {
	m := metrics.New(registry)
	metrics.RegisterLogDrops(registry, log.DroppedRecords)

	container := board.NewMemoryContainer()
	// Only the container is bound: the server holds the default view there and
	// each request renders its own filters through Board.View.
	b := board.New(src, board.Ports{Container: container}, board.Options{
		Logger:  log,
		Metrics: m,
		ReportError: func(ctx context.Context, err error) {
			sentry.CaptureExceptionWithContext(ctx, "board", err)
		},
	})

	app := &Application{
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		registry:  registry,
		board:     b,
		container: container,
	}
	if cfg.RateLimitEnabled() {
		app.limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Burst:         int(cfg.RateLimitBurst),
			RefillRate:    cfg.RateLimitRPS,
			CleanupPeriod: config.RateLimiterCleanupInterval,
			OnDrop:        m.RecordRateLimitDrop,
			OnUpdate:      m.SetRateLimiterClients,
		})
	}
	app.router = app.routes()

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}
	return app
}

func (a *Application) routes() *gin.Engine {
	router := gin.New()
	// Client IPs come from the remote address unless a trusted proxy forwarded the request.
	if err := router.SetTrustedProxies(a.cfg.TrustedProxies); err != nil {
		a.logger.WithError(err).Warn("Invalid trusted proxies, using remote address only")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentryMiddleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	public := router.Group("/")
	if a.limiter != nil {
		public.Use(rateLimitMiddleware(a.limiter, a.metrics))
	}
	public.GET("/", a.page)
	public.GET("/programs", a.fragment)
	public.GET("/api/programs", a.listPrograms)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsAuthEnabled, a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	router.NoRoute(a.notFound)

	return router
}

// Handler returns the HTTP handler serving every route.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and the background load, then blocks until
// SIGINT/SIGTERM and shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startLoad(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	// Abandon a load still in flight; the board settles in Failed.
	cancel()
	a.wg.Wait()

	return a.shutdown()
}

// startLoad runs the one data retrieval in the background so the server can
// answer with the loading state meanwhile.
func (a *Application) startLoad(ctx context.Context) {
	ctx = ctxutil.WithRequestID(ctx, "load-"+uuid.NewString())
	a.wg.Go(func() {
		a.load(ctx)
	})
}

func (a *Application) load(ctx context.Context) board.State {
	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	state := a.board.Start(loadCtx)
	a.logger.WithField("state", state.String()).
		WithField("count", a.board.Count()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("Board load finished")
	return state
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops accepting requests, waits for in-flight ones, then flushes
// error reports and remote logs.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	if a.limiter != nil {
		a.limiter.Stop()
	}

	if sentry.IsEnabled() && !sentry.Flush(config.SentryFlush) {
		a.logger.Warn("Sentry flush timed out")
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
