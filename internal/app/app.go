package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"

	"github.com/larrynino/spatial-public-health/internal/charts"
	"github.com/larrynino/spatial-public-health/internal/config"
	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	customMiddleware "github.com/larrynino/spatial-public-health/internal/middleware"
	"github.com/larrynino/spatial-public-health/internal/pipeline"
	"github.com/larrynino/spatial-public-health/internal/services"
	handlers "github.com/larrynino/spatial-public-health/internal/transport/http"
	"github.com/larrynino/spatial-public-health/internal/validation"
	"github.com/larrynino/spatial-public-health/pkg/contracts"
)

const (
	VERSION  = contracts.Version
	REPO_URL = "https://github.com/larrynino/spatial-public-health"
	AppName  = contracts.AppName
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(contracts.GitCommit))
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
	ErrorHandler  *errors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Cache     *pipeline.Cache
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Renderer  *charts.Renderer
	Validator *customMiddleware.Validator
}

// NewApplication loads the configuration and wires the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return NewApplicationWithConfig(cfg, logger, otelProviders)
}

// NewApplicationWithConfig wires the application from explicit dependencies.
// A nil providers value uses the global OpenTelemetry providers.
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger, otelProviders *infrastructure.OTelProviders) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if otelProviders == nil {
		otelProviders = &infrastructure.OTelProviders{
			Logger: logger,
			Tracer: otel.Tracer(infrastructure.MeterName),
			Meter:  otel.Meter(infrastructure.MeterName),
		}
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("csv_path", cfg.Data.CSVPath),
		slog.String("boundary_path", cfg.Data.BoundaryPath))

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  errors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	cache, err := pipeline.NewCache(pipeline.OptionsFromConfig(a.Config.Data), a.Logger, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline cache: %w", err)
	}

	a.Services = &ServiceContainer{
		Cache:     cache,
		Dashboard: services.NewDashboardService(cache, a.Logger),
		Health: services.NewHealthServiceWithBuildInfo(
			VERSION,
			REPO_URL,
			BuildTime,
			BuildID,
			cache,
			a.Logger,
		),
		Renderer:  charts.NewRenderer(a.Config.Charts.AssetsHost, a.Logger).WithSize(a.Config.Charts.Width, a.Config.Charts.Height),
		Validator: customMiddleware.NewValidator(a.Logger),
	}
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.DefaultSecureHeaders(a.Config.Charts.AssetsHost).Handler)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.ErrorHandler,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))
		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	svc := a.Services

	r.Route("/api", func(r chi.Router) {
		healthHandler := handlers.NewHealthHandler(svc.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, svc.Validator, a.Metrics, a.Logger, a.ErrorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes(
			customMiddleware.APIKeyAuth(a.Logger, a.ErrorHandler, a.Config.Security.APIKeys),
			customMiddleware.AuditLog(a.Logger),
		))
	})
}

func (a *Application) setupHTMLRoutes(r chi.Router) {
	svc := a.Services

	indexHandler := handlers.NewIndexHandler(svc.Dashboard, svc.Validator, a.Logger, a.ErrorHandler)
	r.Get("/", indexHandler.ServeIndex)

	chartHandler := handlers.NewChartHandler(svc.Dashboard, svc.Renderer, svc.Validator, a.Metrics, a.Logger, a.ErrorHandler)
	r.Mount("/charts", chartHandler.Routes())
}

// getCORSConfig builds the CORS policy from the security section
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-API-Key",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"X-Request-ID"},
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and warms the pipeline cache in the background
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go a.warmCache(ctx)

	url := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	a.Logger.InfoContext(ctx, "Application started successfully", slog.String("address", url))

	if a.Config.Server.OpenBrowser {
		go a.openWhenReady(ctx, url)
	}
	return nil
}

// warmCache builds the first pipeline result so the first page load is fast.
// Failures are reported by the views that need the data.
func (a *Application) warmCache(ctx context.Context) {
	res, err := a.Services.Cache.Get(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "Initial data load failed", slog.String("error", err.Error()))
		return
	}
	attrs := []any{
		slog.Int("records", res.Dataset.Len()),
		slog.String("fingerprint", res.Fingerprint.Short()),
		slog.Bool("geo_available", res.HasGeo()),
	}
	if res.GeoErr != nil {
		attrs = append(attrs, slog.String("geo_error", res.GeoErr.Error()))
	}
	a.Logger.InfoContext(ctx, "Initial data load complete", attrs...)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(ctx)
}

// performStartupHealthCheck reports missing or unreadable inputs and an
// unwritable export directory. None of them prevents the server from starting.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	if !a.Config.Data.HasBoundaries() {
		a.Logger.InfoContext(ctx, "No boundary file configured; map views are disabled")
	}

	report := validation.NewFileValidator(a.Logger).ValidateInputs(
		a.Config.Data.CSVPath,
		a.Config.Data.BoundaryPath,
		a.Config.Data.ExportDir,
	)
	if !report.OK() {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(report.Problems(), "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// openWhenReady polls the health endpoint and opens the dashboard once the
// server answers
func (a *Application) openWhenReady(ctx context.Context, url string) {
	healthURL := url + "/api/health"
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}

		resp, err := http.Get(healthURL)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			continue
		}

		if err := openBrowser(ctx, url); err != nil {
			a.Logger.WarnContext(ctx, "Failed to open browser",
				slog.String("error", err.Error()),
				slog.String("url", url))
			fmt.Printf("\n%s is running at %s\n\n", AppName, url)
		}
		return
	}

	a.Logger.ErrorContext(ctx, "Server did not become ready for browser opening",
		slog.String("url", url),
		slog.Int("max_retries", maxRetries))
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

// openBrowser tries each platform method in turn
func openBrowser(ctx context.Context, url string) error {
	var lastErr error
	for _, method := range getBrowserOpenMethods(url) {
		cmdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := exec.CommandContext(cmdCtx, method.cmd, method.args...).Start()
		cancel()
		if err != nil {
			lastErr = err
			slog.Debug("Browser open method failed",
				slog.String("method", method.name),
				slog.String("error", err.Error()))
			continue
		}
		slog.Info("Browser opened", slog.String("method", method.name), slog.String("url", url))
		return nil
	}
	return fmt.Errorf("failed to open browser: %w", lastErr)
}

// getBrowserOpenMethods returns platform-specific browser opening methods
func getBrowserOpenMethods(url string) []browserMethod {
	switch runtime.GOOS {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
		}
	case "darwin":
		return []browserMethod{
			{name: "open", cmd: "open", args: []string{url}},
		}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}
}
