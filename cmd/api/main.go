package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/slist-backend/internal/config"
	"github.com/georgemunganga/slist-backend/internal/database"
	"github.com/georgemunganga/slist-backend/internal/modules/auth"
	"github.com/georgemunganga/slist-backend/internal/modules/shoppinglist"
	"github.com/georgemunganga/slist-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// ── Database ────────────────────────────────────────────
	var db *database.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("connected to database", "driver", cfg.DatabaseDriver)
	}

	// ── Identity ────────────────────────────────────────────
	var userRepo user.Repository
	if db != nil {
		userRepo = user.NewSQLRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		userRepo = user.NewMemoryRepository()
	}
	userService := user.NewService(userRepo, cfg.BcryptRounds)
	authService := auth.NewService(userService, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL))

	// ── Shopping lists ──────────────────────────────────────
	defaults, err := shoppinglist.LoadDefaults(cfg.SeedFile)
	if err != nil {
		return err
	}
	listRepo, err := newListRepository(cfg, db, defaults, logger)
	if err != nil {
		return err
	}
	listService := shoppinglist.NewService(listRepo, defaults,
		shoppinglist.WithLogger(logger),
		shoppinglist.WithArchiveDir(cfg.ArchiveDir),
	)
	if _, err := listService.Load(ctx); err != nil {
		logger.Warn("starting with default shopping lists", "error", err)
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Save-Status"},
		AllowCredentials: true,
	}))

	router.Get("/health", healthHandler(cfg.Env))
	router.NotFound(notFoundHandler)

	auth.NewHandler(authService, logger).RegisterRoutes(router)
	shoppinglist.NewHandler(listService, defaults, logger).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("slist API server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newListRepository(cfg *config.Config, db *database.DB, defaults shoppinglist.Defaults, logger *slog.Logger) (shoppinglist.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		return shoppinglist.NewFileRepository(cfg.DataFile, defaults, logger), nil
	case config.BackendMemory:
		return shoppinglist.NewMemoryRepository(defaults), nil
	case config.BackendDatabase:
		if db == nil {
			return nil, errors.New("DATABASE_URL environment variable not set")
		}
		return shoppinglist.NewSQLRepository(db, defaults, logger), nil
	case config.BackendRemote:
		return shoppinglist.NewRemoteRepository(cfg.RemoteDataURL, nil, defaults, logger), nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}
