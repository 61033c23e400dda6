package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"google.golang.org/api/option"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/infrastructure"
	customMiddleware "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/middleware"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/services"
	transporthttp "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/transport/http"
	ws "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/websocket"
)

// AppName is reported in logs and telemetry.
const AppName = "msh-dashboard"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Version          string
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	Telemetry        *infrastructure.Telemetry
	Loader           *dataset.Loader
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	WebSocketHub     *ws.Hub
	ErrorHandler     *apierrors.ErrorHandler
}

// NewApplication loads configuration from file and environment, sets up
// logging and builds the application.
func NewApplication(version string) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", version),
		slog.String("data_source", cfg.Data.Source))

	return New(context.Background(), cfg, version, logger)
}

// New builds the application from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	source, err := NewSource(ctx, cfg.Data, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset source: %w", err)
	}

	a := &Application{
		Config:       cfg,
		Version:      version,
		Logger:       logger,
		Telemetry:    tel,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
		WebSocketHub: ws.NewHub(logger),
	}
	a.Loader = dataset.NewLoader(source, logger,
		dataset.WithObserver(tel.Metrics),
		dataset.WithTracer(tel.Tracer))
	a.DashboardService = services.NewDashboardService(a.Loader, tel.Metrics, tel.Tracer, logger)
	a.HealthService = services.NewHealthService(version, "", a.Loader, logger)

	a.setupRouter()
	a.createServer()
	return a, nil
}

// NewSource creates the configured dataset source.
func NewSource(ctx context.Context, cfg config.DataConfig, logger *slog.Logger) (dataset.Source, error) {
	switch cfg.Source {
	case config.SourceExcel, "":
		return dataset.NewExcelSource(cfg.Path, cfg.Sheet, logger), nil
	case config.SourceSheets:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return dataset.NewSheetsSource(ctx, cfg.SpreadsheetID, cfg.Sheet, cfg.RefreshInterval, logger, opts...)
	default:
		return nil, fmt.Errorf("unsupported data source %q", cfg.Source)
	}
}

// setupRouter wires middleware and routes. The WebSocket route sits
// outside the timeout and rate limit group since sessions are long lived.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTel(a.Telemetry.Tracer, a.Telemetry.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/ws/dashboard", ws.NewHandler(a.DashboardService, a.WebSocketHub, a.Config.WebSocket,
		a.Config.Security.AllowedOrigins, a.Telemetry.Metrics, a.ErrorHandler, a.Logger))

	if a.Telemetry.MetricsHandler != nil {
		r.Handle("/metrics", a.Telemetry.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		dashboard := transporthttp.NewDashboardHandler(a.DashboardService, a.Logger, a.ErrorHandler)
		health := transporthttp.NewHealthHandler(a.HealthService, a.Logger)
		api := dashboard.Routes()
		health.Register(api)
		r.Mount("/api", api)
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Warmup performs the initial dataset load. A schema or read failure is
// returned so the caller can abort startup.
func (a *Application) Warmup(ctx context.Context) error {
	ds, err := a.Loader.Dataset(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset load failed: %w", err)
	}
	a.Logger.InfoContext(ctx, "dataset ready",
		slog.String("source", ds.Meta.Source),
		slog.Int("records", ds.Len()),
		slog.String("fingerprint", ds.Meta.Fingerprint))
	return nil
}

// Start loads the dataset and starts serving in the background. Serve
// errors cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	if err := a.Warmup(ctx); err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", a.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.WebSocketHub.Close(shutdownCtx)

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down telemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(context.Background(), "Received shutdown signal")

	return a.Stop(context.Background())
}
