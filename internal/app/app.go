// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/meetup-hub/api/openapi"
	"github.com/bissquit/meetup-hub/internal/config"
	"github.com/bissquit/meetup-hub/internal/identity"
	"github.com/bissquit/meetup-hub/internal/identity/jwt"
	identitypostgres "github.com/bissquit/meetup-hub/internal/identity/postgres"
	"github.com/bissquit/meetup-hub/internal/meetups"
	meetupspostgres "github.com/bissquit/meetup-hub/internal/meetups/postgres"
	"github.com/bissquit/meetup-hub/internal/notifications"
	"github.com/bissquit/meetup-hub/internal/notifications/email"
	notificationspostgres "github.com/bissquit/meetup-hub/internal/notifications/postgres"
	"github.com/bissquit/meetup-hub/internal/pkg/clock"
	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
	"github.com/bissquit/meetup-hub/internal/pkg/httputil"
	"github.com/bissquit/meetup-hub/internal/pkg/metrics"
	"github.com/bissquit/meetup-hub/internal/pkg/postgres"
	"github.com/bissquit/meetup-hub/internal/subscriptions"
	subscriptionspostgres "github.com/bissquit/meetup-hub/internal/subscriptions/postgres"
	"github.com/bissquit/meetup-hub/internal/version"
	"github.com/bissquit/meetup-hub/migrations"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config             *config.Config
	logger             *slog.Logger
	db                 *pgxpool.Pool
	server             *http.Server
	metricsServer      *http.Server
	backgroundCancel   context.CancelFunc
	notificationWorker *notifications.Worker
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(migrations.FS, cfg.Database.URL); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database migrations applied")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())

	app := &App{
		config:           cfg,
		logger:           logger,
		db:               db,
		backgroundCancel: backgroundCancel,
	}

	if err := metrics.RegisterDBPool(db); err != nil {
		db.Close()
		backgroundCancel()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	router, notificationWorker, err := app.setupRouter(backgroundCtx)
	if err != nil {
		db.Close()
		backgroundCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.notificationWorker = notificationWorker

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.backgroundCancel()

	// Stop notification worker first
	if a.notificationWorker != nil {
		a.notificationWorker.Stop()
	}

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// NotificationWorker returns the notification worker instance.
// Used in tests to access worker state. Returns nil if notifications disabled.
func (a *App) NotificationWorker() *notifications.Worker {
	return a.notificationWorker
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, *notifications.Worker, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(openapi.Spec)
	})

	clk := clock.System()

	identityRepo := identitypostgres.NewRepository(a.db)
	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey: a.config.JWT.SecretKey,
		Issuer:    a.config.JWT.Issuer,
	})
	identityService := identity.NewService(identityRepo, jwtAuth)
	identityHandler := identity.NewHandler(identityService)

	meetupsService := meetups.NewService(meetupspostgres.NewRepository(a.db), clk, a.config.Location())
	meetupsHandler := meetups.NewHandler(meetupsService)

	notifier, notificationWorker, err := a.setupNotifications(ctx)
	if err != nil {
		return nil, nil, err
	}

	subscriptionsService := subscriptions.NewService(
		subscriptionspostgres.NewRepository(a.db),
		meetupsService,
		identityService,
		notifier,
		clk,
	)
	subscriptionsHandler := subscriptions.NewHandler(subscriptionsService)

	var limiter *httputil.RateLimiter
	if a.config.RateLimit.Enabled {
		limiter = httputil.NewRateLimiter(a.config.RateLimit.RPS, a.config.RateLimit.Burst)
		go limiter.Run(ctx, time.Minute)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(identityService))
		if limiter != nil {
			r.Use(httputil.RateLimitMiddleware(limiter))
		}

		identityHandler.RegisterProtectedRoutes(r)
		meetupsHandler.RegisterRoutes(r)
		subscriptionsHandler.RegisterRoutes(r)
	})

	return r, notificationWorker, nil
}

// setupNotifications builds the organizer notification pipeline. When
// notifications are disabled subscriptions are accepted without side effects.
func (a *App) setupNotifications(ctx context.Context) (subscriptions.SubscriptionNotifier, *notifications.Worker, error) {
	cfg := a.config.Notifications

	slog.Info("notifications configured",
		"enabled", cfg.Enabled,
		"email_enabled", cfg.Email.Enabled,
		"locale", cfg.Locale,
	)

	if !cfg.Enabled {
		return notifications.NopNotifier{}, nil, nil
	}

	emailSender, err := email.NewSender(email.Config{
		Enabled:      cfg.Email.Enabled,
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromAddress:  cfg.Email.FromAddress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create email sender: %w", err)
	}

	if !cfg.Email.Enabled {
		slog.Warn("email sender is disabled: organizer notifications will be dropped")
	}

	renderer, err := notifications.NewRenderer(cfg.Locale, a.config.Location())
	if err != nil {
		return nil, nil, fmt.Errorf("create notification renderer: %w", err)
	}

	repo := notificationspostgres.NewRepository(a.db)

	worker := notifications.NewWorker(notifications.WorkerConfig{
		BatchSize:         cfg.Worker.BatchSize,
		PollInterval:      cfg.Worker.PollInterval,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		MaxBackoff:        cfg.Retry.MaxBackoff,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		NumWorkers:        cfg.Worker.NumWorkers,
		StaleAfter:        notifications.DefaultWorkerConfig().StaleAfter,
	}, repo, emailSender, renderer)
	worker.Start(ctx)

	return notifications.NewNotifier(repo, cfg.Retry.MaxAttempts), worker, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
