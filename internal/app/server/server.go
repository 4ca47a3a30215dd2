package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/cache"
	"emsconsole/internal/platform/config"
	"emsconsole/internal/platform/crypto"
	"emsconsole/internal/platform/db"
	"emsconsole/internal/platform/i18n"
	"emsconsole/internal/platform/imaging"
	"emsconsole/internal/platform/jobs"
	"emsconsole/internal/platform/logging"
	"emsconsole/internal/platform/metrics"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/transport/http/api"
	attendancehandler "emsconsole/internal/transport/http/handlers/attendance"
	authhandler "emsconsole/internal/transport/http/handlers/auth"
	dashboardhandler "emsconsole/internal/transport/http/handlers/dashboard"
	employeehandler "emsconsole/internal/transport/http/handlers/employee"
	employeeshandler "emsconsole/internal/transport/http/handlers/employees"
	leaverequestshandler "emsconsole/internal/transport/http/handlers/leaverequests"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
)

const (
	sessionSweepInterval = 10 * time.Minute
	toastSweepInterval   = time.Minute
	shutdownTimeout      = 15 * time.Second
)

type App struct {
	Config  config.Config
	Router  http.Handler
	Jobs    *jobs.Service
	Health  *jobs.HealthProbe
	Metrics *metrics.Collector
	Toasts  *ui.ToastHub
	Kit     *web.Kit

	closers []func()
}

// Close releases the session and snapshot backends.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func Run() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.Environment)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Health.Check(ctx); err != nil {
		logger.Warn("upstream not reachable at startup", "error", err, "apiBaseUrl", cfg.APIBaseURL)
	}
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("ems console listening", "addr", cfg.Addr, "apiBaseUrl", cfg.APIBaseURL, "sessionBackend", cfg.SessionBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	stop()
	app.Jobs.Wait()
}

// New composes the console: upstream client, session and snapshot backends,
// background jobs and the router. Jobs are not started.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	client, err := emsapi.New(cfg.APIBaseURL, emsapi.Options{Timeout: cfg.APITimeout, Observer: app.Metrics})
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_SECRET is required in production")
		}
		if secret, err = crypto.RandomSecret(); err != nil {
			return nil, err
		}
		slog.Warn("SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	codec, err := session.NewCodec(secret)
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}
	signer, err := session.NewSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("session signer: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	store, err := openSessionStore(ctx, app, cfg, codec, redisClient)
	if err != nil {
		return nil, err
	}
	manager := session.NewManager(store, signer, cfg.SessionTTL, cfg.CookieSecure)

	var snapshots cache.Snapshots = cache.NewMemorySnapshots()
	if redisClient != nil {
		snapshots = cache.NewRedisSnapshots(redisClient)
	}
	dashboard := cache.NewDashboard(client, snapshots, cfg.DashboardRefreshInterval)

	catalog, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("message catalog: %w", err)
	}
	app.Toasts = ui.NewToastHub(ui.ToastOptions{Duration: cfg.ToastDuration})
	renderer, err := web.New(catalog, app.Toasts, nil)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	app.Kit = web.NewKit(renderer, catalog, app.Toasts, manager, nil)

	app.Jobs = jobs.New(app.Metrics)
	app.Health = jobs.NewHealthProbe(client, app.Metrics.SetUpstreamUp)
	app.Jobs.Every(jobs.JobDashboardRefresh, cfg.DashboardRefreshInterval, jobs.DashboardRefresh(dashboard, cache.ErrNoCredentials))
	app.Jobs.Every(jobs.JobUpstreamHealth, cfg.HealthCheckInterval, app.Health.Check)
	app.Jobs.Every(jobs.JobSessionSweep, sessionSweepInterval, jobs.SessionSweep(store))
	app.Jobs.Every(jobs.JobToastSweep, toastSweepInterval, jobs.ToastSweep(app.Toasts))

	csrfKey, err := crypto.DeriveKey(secret, crypto.PurposeCSRF, 32)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default(), app.Metrics))
	router.Use(middleware.Recoverer(renderer.ErrorPage("error.generic", http.StatusInternalServerError)))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, imaging.MaxUpload+1<<20))
	router.Use(middleware.Session(manager))
	router.Use(middleware.Locale(catalog))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady(store))
	if cfg.MetricsEnabled {
		router.Handle("/metrics", app.Metrics.Handler())
	}
	router.Handle("/static/*", web.Static())

	router.Group(func(r chi.Router) {
		limited := middleware.WithLimitedHandler(renderer.ErrorPage("error.rate_limited", http.StatusTooManyRequests))
		r.Use(middleware.CSRF(csrfKey, cfg.CookieSecure, renderer.ErrorPage("error.csrf", http.StatusForbidden)))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limited))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, limited))

		r.Get("/", handleHome)
		r.Post("/toasts/{id}/close", app.handleCloseToast)

		authhandler.NewHandler(client, app.Kit).RegisterRoutes(r)
		dashboardhandler.NewHandler(dashboard, app.Jobs, app.Kit).RegisterRoutes(r)
		employeeshandler.NewHandler(client, app.Kit).RegisterRoutes(r)
		attendancehandler.NewHandler(client, app.Kit).RegisterRoutes(r)
		leaverequestshandler.NewHandler(client, app.Kit).RegisterRoutes(r)
		employeehandler.NewHandler(client, app.Kit).RegisterRoutes(r)
	})
	router.NotFound(renderer.NotFound)

	app.Router = router
	ok = true
	return app, nil
}

func openSessionStore(ctx context.Context, app *App, cfg config.Config, codec *session.Codec, redisClient *redis.Client) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis session backend needs REDIS_ADDR")
		}
		return session.NewRedisStore(redisClient, codec), nil
	case config.SessionBackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return session.NewPostgresStore(pool, codec), nil
	default:
		return session.NewMemoryStore(codec), nil
	}
}

func (a *App) handleReady(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]any{
			"upstream":  a.Health.Ready(),
			"checkedAt": a.Health.CheckedAt(),
			"sessions":  true,
			"requests":  a.Metrics.Snapshot(),
		}
		if err := store.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "session store not ready", "error", err)
			status["sessions"] = false
		}
		if !a.Health.Ready() || status["sessions"] == false {
			api.WriteJSON(w, http.StatusServiceUnavailable, api.Envelope{
				Success: false,
				Data:    status,
				Error:   &api.Error{Code: "not_ready", Message: "dependencies not ready"},
			})
			return
		}
		api.Success(w, status, middleware.GetRequestID(r.Context()))
	}
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		web.SeeOther(w, r, "/login")
		return
	}
	web.SeeOther(w, r, middleware.HomePath(sess.Role))
}

// handleCloseToast dismisses one toast before its timer runs out.
func (a *App) handleCloseToast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	closed := false
	if sess, ok := middleware.GetSession(r.Context()); ok {
		closed = a.Toasts.For(sess.ID).Close(id)
	}
	if api.WantsJSON(r) {
		if !closed {
			api.Fail(w, http.StatusNotFound, "not_found", "toast not found", middleware.GetRequestID(r.Context()))
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	web.Back(w, r, "/")
}
