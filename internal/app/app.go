package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"genbea/internal/config"
	"genbea/internal/dataset"
	apierrors "genbea/internal/errors"
	"genbea/internal/files"
	"genbea/internal/infrastructure"
	customMiddleware "genbea/internal/middleware"
	"genbea/internal/services"
	handlers "genbea/internal/transport/http"
)

var (
	// Version is overridden at link time for release builds.
	Version = config.AppVersion
	// RepoURL is set at link time.
	RepoURL = ""
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	Discovery     *files.Discovery
	Cache         *dataset.Cache
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Gate          *customMiddleware.AccessGate

	runtimeMetrics metric.Registration
}

// NewApplication loads configuration and logging, then assembles the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New assembles the application from an already validated configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.Paths.DataDir))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices wires the workbook pipeline and the services on top of it
func (a *Application) initializeServices() error {
	cfg := a.Config

	a.Discovery = files.NewDiscovery(cfg.Paths.DataDir, cfg.Dataset.FilePrefix)

	a.Cache = dataset.NewCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)

	loader := dataset.NewLoader(dataset.SchemaFrom(cfg.Dataset), a.Cache,
		dataset.WithLogger(a.Logger),
		dataset.WithTracer(a.OTelProviders.Tracer),
		dataset.WithMetrics(a.Metrics),
	)

	a.Dashboard = services.NewDashboardService(a.Discovery, loader, cfg, a.Logger).WithMetrics(a.Metrics)

	a.Health = services.NewHealthService(
		services.BuildInfo{
			Version:   Version,
			RepoURL:   RepoURL,
			BuildTime: BuildTime,
			BuildID:   BuildID,
		},
		cfg.Paths,
		a.Discovery,
		a.Cache,
		a.Logger,
	)

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, false)
	a.Gate = customMiddleware.NewAccessGate(cfg.Security, a.ErrorHandler, a.Logger).
		SecureCookies(cfg.Telemetry.Environment == "production")

	reg, err := infrastructure.RegisterRuntimeMetrics(a.OTelProviders.Meter, time.Now(), infrastructure.RuntimeGauges{
		CacheEntries:   func() int64 { return int64(a.Cache.Stats().Entries) },
		ActiveSessions: func() int64 { return int64(a.Gate.Sessions().Len()) },
	})
	if err != nil {
		return fmt.Errorf("failed to register runtime metrics: %w", err)
	}
	a.runtimeMetrics = reg

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	var routeErr error
	r.Group(func(r chi.Router) {
		// RequestID → RealIP → Tracing → request log/recovery → headers → rate limit → timeout
		r.Use(customMiddleware.NewTracing(a.Logger).Handler)

		errorMiddleware := apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).
			WithObserver(func(r *http.Request, route string, status int, duration time.Duration) {
				a.Metrics.RecordHTTPRequest(r.Context(), r.Method, route, status, duration)
			})
		r.Use(errorMiddleware.Handler)
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler, a.Logger))

		validator := customMiddleware.NewValidator(a.Logger)
		a.setupAPIRoutes(r, validator)
		routeErr = a.setupHTMLRoutes(r, validator)
	})
	if routeErr != nil {
		return routeErr
	}

	// Scraped outside the middleware group so scrapes stay out of the request metrics.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, validator handlers.RequestValidator) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(a.Gate.Handler)
			dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, validator, a.Logger, a.ErrorHandler)
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
	})
}

// setupHTMLRoutes configures the login flow and the dashboard page
func (a *Application) setupHTMLRoutes(r chi.Router, validator handlers.RequestValidator) error {
	htmlHandler, err := handlers.NewHTMLHandler(a.Dashboard, validator, a.Gate, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}

	htmlHandler.LoginRoutes(r, a.ErrorHandler)
	r.With(a.Gate.Handler).Get("/", htmlHandler.Dashboard)
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.performStartupCheck(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Application started",
			slog.String("address", a.Server.Addr),
			slog.String("level", a.Config.Logging.Level),
			slog.Bool("rate_limit", a.Config.Security.RateLimit.Enabled))

		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Cache.Purge()

	if a.runtimeMetrics != nil {
		if err := a.runtimeMetrics.Unregister(); err != nil {
			a.Logger.WarnContext(ctx, "Failed to unregister runtime metrics", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// performStartupCheck logs what the dashboard will find on its first request.
// Missing data is not fatal: files may be copied in after startup.
func (a *Application) performStartupCheck(ctx context.Context) {
	if _, err := os.Stat(a.Config.Paths.DataDir); err != nil {
		a.Logger.WarnContext(ctx, "Data directory not accessible",
			slog.String("path", a.Config.Paths.DataDir),
			slog.String("error", err.Error()))
		return
	}

	catalog, err := a.Discovery.Catalog()
	if err != nil {
		a.Logger.WarnContext(ctx, "Workbook discovery failed",
			slog.String("path", a.Config.Paths.DataDir),
			slog.String("error", err.Error()))
		return
	}
	if len(catalog.Years) == 0 {
		a.Logger.WarnContext(ctx, "No workbook files found",
			slog.String("path", a.Config.Paths.DataDir),
			slog.String("prefix", a.Config.Dataset.FilePrefix))
		return
	}

	a.Logger.InfoContext(ctx, "Workbook catalog",
		slog.Int("years", len(catalog.Years)),
		slog.Any("year_names", catalog.YearNames()))
}
