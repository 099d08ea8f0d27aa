package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/tickguard/internal/api/http"
	"github.com/GriffinCanCode/tickguard/internal/api/middleware"
	"github.com/GriffinCanCode/tickguard/internal/api/ws"
	"github.com/GriffinCanCode/tickguard/internal/cache"
	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/config"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
	"github.com/GriffinCanCode/tickguard/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server, the tick driver and the maintenance scheduler
type Server struct {
	config    *config.Config
	logger    *logging.Logger
	registry  *prometheus.Registry
	metrics   *monitoring.Metrics
	driver    *pipeline.Driver
	scheduler *scheduler.Scheduler
	router    *gin.Engine
}

// Option customizes a Server.
type Option func(*options)

type options struct {
	logger *logging.Logger
	feed   pipeline.Feed
}

// WithLogger replaces the logger built from the logging config.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFeed replaces the synthetic random walk feed.
func WithFeed(f pipeline.Feed) Option {
	return func(o *options) { o.feed = f }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing tickguard",
		zap.String("port", cfg.Server.Port),
		zap.Int("workers", cfg.Pipeline.Workers),
		zap.Duration("tick_interval", cfg.Pipeline.TickInterval),
	)

	// Initialize metrics first (needed by other components)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	calculators := indicators.NewRegistry()

	watchlist := pipeline.DefaultWatchlist()
	if cfg.Pipeline.WatchlistPath != "" {
		wl, err := pipeline.LoadWatchlist(cfg.Pipeline.WatchlistPath)
		if err != nil {
			return nil, err
		}
		watchlist = wl
	}
	if err := watchlist.Validate(calculators); err != nil {
		return nil, fmt.Errorf("invalid watchlist: %w", err)
	}
	logger.Info("Watchlist loaded",
		zap.String("path", cfg.Pipeline.WatchlistPath),
		zap.Int("subscriptions", len(watchlist.Subscriptions)),
	)

	engines := newEngines(cfg, calculators, metrics, logger)

	feed := o.feed
	if feed == nil {
		feed = pipeline.NewRandomWalkFeed(watchlist.Symbols(), time.Now().UnixNano())
	}
	driver := pipeline.NewDriver(
		pipeline.DriverConfig{
			Interval:      cfg.Pipeline.TickInterval,
			HistoryLength: cfg.Pipeline.HistoryLength,
		},
		engines, feed, watchlist,
		pipeline.WithDriverLogger(logger.Component("driver")),
		pipeline.WithTickRecorder(metrics),
	)

	sched := scheduler.New(logger.Logger, metrics)
	workers := scheduler.Workers(engines)
	if err := sched.AddJob(cfg.Maintenance.CleanupSchedule,
		scheduler.NewCleanupJob(workers, logger.Component("jobs"))); err != nil {
		return nil, err
	}
	if err := sched.AddJob(cfg.Maintenance.SnapshotSchedule,
		scheduler.NewSnapshotJob(workers, metrics, logger.Component("jobs"))); err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		registry:  registry,
		metrics:   metrics,
		driver:    driver,
		scheduler: sched,
	}
	s.router = s.routes()

	logger.Info("Server initialized successfully", zap.String("run_id", driver.RunID()))
	return s, nil
}

func newEngines(cfg *config.Config, calculators *indicators.Registry, metrics *monitoring.Metrics, logger *logging.Logger) []*pipeline.Engine {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.MaxSize = cfg.Cache.MaxSize
	cacheCfg.BaseTTL = cfg.Cache.BaseTTL
	cacheCfg.BucketSize = cfg.Cache.BucketSize

	engines := make([]*pipeline.Engine, cfg.Pipeline.Workers)
	for i := range engines {
		breaker := resilience.DefaultSettings()
		breaker.FailureThreshold = cfg.Breaker.FailureThreshold
		breaker.SuccessThreshold = cfg.Breaker.SuccessThreshold
		breaker.Timeout = cfg.Breaker.Timeout
		breaker.RecoveryTimeout = cfg.Breaker.RecoveryTimeout
		breaker.OnStateChange = metrics.CircuitStateChanged

		engines[i] = pipeline.NewEngine(
			pipeline.EngineConfig{
				ID:      fmt.Sprintf("worker-%d", i),
				Cache:   cacheCfg,
				Breaker: breaker,
			},
			calculators,
			pipeline.WithLogger(logger.Component("engine")),
			pipeline.WithRecorder(metrics),
		)
	}
	return engines
}

func (s *Server) routes() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(s.logger.Component("http")))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(s.driver, s.metrics, s.logger.Component("api"))
	wsHandler := ws.NewHandler(s.driver, s.metrics, s.logger.Component("ws"), s.config.Pipeline.TickInterval)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Workers
	router.GET("/workers", handlers.ListWorkers)
	router.GET("/workers/:id/cache", handlers.WorkerCache)
	router.GET("/workers/:id/health", handlers.WorkerHealth)
	router.POST("/workers/:id/circuit/reset", handlers.ResetCircuit)
	router.POST("/workers/:id/cache/cleanup", handlers.CleanupCache)
	router.DELETE("/workers/:id/cache", handlers.ClearCache)
	router.DELETE("/workers/:id/cache/symbols/:symbol", handlers.InvalidateSymbol)

	// Values
	router.GET("/indicators", handlers.ListIndicators)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoints
	router.GET("/metrics", apihttp.Prometheus(s.registry))
	router.GET("/metrics/json", handlers.MetricsJSON)

	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Driver returns the tick driver.
func (s *Server) Driver() *pipeline.Driver {
	return s.driver
}

// Run serves HTTP, ticks and runs maintenance jobs until ctx is canceled,
// then shuts everything down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()
	defer s.scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.driver.Run(gctx)
	})

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close flushes the logger
func (s *Server) Close() error {
	// Sync fails on stdout/stderr on some platforms
	_ = s.logger.Sync()
	return nil
}
