// @title        Expense Tracker API
// @version      1.0
// @description  Signup, login and owner-scoped expense records.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/user/expenses-go/auth"
	"github.com/user/expenses-go/background"
	"github.com/user/expenses-go/config"
	"github.com/user/expenses-go/db"
	"github.com/user/expenses-go/expenses"
	"github.com/user/expenses-go/logger"
	"github.com/user/expenses-go/metrics"
	"github.com/user/expenses-go/users"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "expenses",
		Usage: "expense tracker HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading the environment",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "init-schema",
				Usage: "create tables if they do not exist (overrides DB_INIT_SCHEMA)",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	log := logger.SetupDefault(os.Stdout)

	if err := godotenv.Load(c.String("env-file")); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.String("env-file"), err)
		}
		log.Info("env file not found, using process environment", slog.String("path", c.String("env-file")))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.Bool("init-schema") {
		cfg.Database.InitSchema = true
	}
	log.Info("configuration loaded", slog.String("config", cfg.String()))

	ctx := c.Context

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.InitSchema {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		log.Info("database schema ensured")
	}

	hashPool := background.NewWorkerPool(cfg.Auth.HashWorkers, cfg.Auth.HashQueueSize, log)
	defer hashPool.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost, hashPool, rec)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)

	userStore := auth.NewPostgresUserStore(pool)
	authService := auth.NewAuthService(userStore, hasher, tokens, rec, log)

	router := newRouter(RouterDeps{
		Logger:          log,
		Metrics:         rec,
		MetricsHandler:  metrics.Handler(reg),
		Health:          pool,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Verifier:        tokens,
		AuthHandlers:    auth.NewHandlers(authService),
		UserHandlers:    users.NewUserHandlers(users.NewUserService(userStore)),
		ExpenseHandlers: expenses.NewHandlers(expenses.NewPostgresRepository(pool)),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
