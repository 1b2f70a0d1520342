package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/widgetkit/internal/api/http"
	"github.com/GriffinCanCode/widgetkit/internal/api/middleware"
	"github.com/GriffinCanCode/widgetkit/internal/dashboard"
	"github.com/GriffinCanCode/widgetkit/internal/fetch"
	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/widgetkit/internal/notify"
	"github.com/GriffinCanCode/widgetkit/internal/sandbox"
	"github.com/GriffinCanCode/widgetkit/internal/source"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	store   *source.Store
	pool    *sandbox.Pool
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	return New(cfg, logger)
}

// New builds the server around an existing logger.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing widgetkit",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("data_path", cfg.Data.Path),
		zap.String("dashboard_dir", cfg.Widgets.DashboardDir),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("widgetkit", logger)

	store, err := source.Open(cfg.Data.Path, logger)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}
	if cfg.Data.Seed {
		if err := store.Seed(context.Background()); err != nil {
			logger.Warn("Failed to seed demo data", zap.Error(err))
		}
	}

	catalog, err := dashboard.LoadDir(cfg.Widgets.DashboardDir)
	if err != nil {
		store.Close()
		tracer.Close()
		return nil, fmt.Errorf("failed to load dashboards: %w", err)
	}
	logger.Info("Dashboards loaded", zap.Int("count", len(catalog.List())))

	pool, err := sandbox.NewPool(sandbox.Config{
		Timeout:        cfg.Sandbox.Timeout,
		AcquireTimeout: 5 * time.Second,
		MaxCallStack:   1024,
		EnableConsole:  true,
		PageURL:        cfg.Widgets.PageBaseURL,
	}, cfg.Sandbox.PoolSize)
	if err != nil {
		store.Close()
		tracer.Close()
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	client := httpclient.New(httpclient.Config{
		BaseURL:   cfg.Widgets.PageBaseURL,
		Timeout:   cfg.HTTP.Timeout,
		Retries:   cfg.HTTP.Retries,
		RateLimit: cfg.HTTP.RateLimit,
		UserAgent: cfg.HTTP.UserAgent,
		OnBreakerChange: func(endpoint string, from, to resilience.State) {
			logger.Warn("Upstream circuit breaker changed state",
				zap.String("endpoint", endpoint),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			metrics.RecordBreakerChange(from.String(), to.String())
		},
	})

	fetcher := fetch.New(client, logger,
		fetch.WithMetrics(metrics),
		fetch.WithTracer(tracer),
		fetch.WithAnimation(cfg.Widgets.AnimationMS),
	)
	renderer := dashboard.NewRenderer(fetcher, logger, cfg.Widgets.PageBaseURL)
	notifier := notify.New(client, notify.LogDisplay{Logger: logger.Named("display")}, logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(rl))
		} else {
			router.Use(middleware.RateLimit(rl))
		}
	}

	handlers := apihttp.NewHandlers(store, catalog, renderer, notifier, pool, client, metrics, logger)
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		store:   store,
		pool:    pool,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the store, sandbox pool and tracer
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sandbox pool: %w", err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close data store", zap.Error(err))
		errs = append(errs, fmt.Errorf("close data store: %w", err))
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
