package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/auth"
	"github.com/user/expenses-go/db"
	_ "github.com/user/expenses-go/docs" // registers the swagger spec
	"github.com/user/expenses-go/expenses"
	"github.com/user/expenses-go/logger"
	"github.com/user/expenses-go/metrics"
	"github.com/user/expenses-go/users"
)

const (
	requestTimeout = 60 * time.Second
	healthTimeout  = 2 * time.Second
)

// RouterDeps carries everything newRouter mounts.
type RouterDeps struct {
	Logger         *slog.Logger
	Metrics        metrics.Recorder
	MetricsHandler http.Handler // nil disables /metrics
	Health         db.Pinger    // nil reports healthy without a ping
	AllowedOrigins []string

	Verifier        auth.TokenVerifier
	AuthHandlers    *auth.Handlers
	UserHandlers    *users.UserHandlers
	ExpenseHandlers *expenses.Handlers
}

func newRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := metrics.OrNop(deps.Metrics)

	r := chi.NewRouter()

	// Chi requires all middleware before any route.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.Middleware(rec))
	r.Use(recoverer(log))
	r.Use(middleware.Timeout(requestTimeout))
	// Tokens travel in the Authorization header only; no credentialed CORS.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Welcome to Expense Tracker!"))
	})
	r.Get("/healthz", healthHandler(deps.Health))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandlers.HandleSignup())
		r.Post("/login", deps.AuthHandlers.HandleLogin())
	})

	jwt := auth.JWTMiddleware(deps.Verifier, rec)

	r.Route("/users", func(r chi.Router) {
		r.Use(jwt)
		r.Get("/me", deps.UserHandlers.HandleGetUserProfile())
	})

	r.Route("/api/v1/expenses", func(r chi.Router) {
		r.Use(jwt)
		deps.ExpenseHandlers.RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewNotFoundError("route not found", nil))
	})

	return r
}

// recoverer turns a handler panic into the standard 500 body.
func recoverer(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						slog.String("panic", fmt.Sprint(rvr)),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)
					auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func healthHandler(p db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
				auth.WriteJSON(w, http.StatusServiceUnavailable,
					apperror.ErrorResponse{Status: "error", Message: "database unavailable"})
				return
			}
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
