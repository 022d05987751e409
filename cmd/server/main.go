package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/recipe-finder/internal/api"
	"github.com/recipe-finder/internal/auth"
	"github.com/recipe-finder/internal/config"
	"github.com/recipe-finder/internal/imagestore"
	"github.com/recipe-finder/internal/logging"
	"github.com/recipe-finder/internal/middleware"
	"github.com/recipe-finder/internal/scheduler"
	"github.com/recipe-finder/internal/service"
	"github.com/recipe-finder/internal/storage"
	"go.uber.org/zap"

	_ "github.com/recipe-finder/docs" // swagger docs
)

// @title Recipe Finder API
// @version 1.0
// @description Recipe sharing service: accounts, published recipes with categories and images, favorites, ratings, reviews, collections and an admin moderation surface.

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your JWT token with the `Bearer ` prefix, e.g. "Bearer eyJhbGci..."

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Connect to database
	logger.Info("connecting to database", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Run migrations
	logger.Info("running migrations")
	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	recipeRepo := storage.NewRecipeRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)
	statsRepo := storage.NewStatsRepository(db)
	socialRepo := storage.NewSocialRepository(db)

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("image store ready", zap.String("backend", cfg.Uploads.Backend))

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret)
	janitor := scheduler.NewJanitor(images, recipeRepo, cfg.Janitor.Grace, logger)

	accounts := service.NewAccountService(userRepo, auth.NewHasher(cfg.BcryptCost), issuer, cfg.JWT)
	recipes := service.NewRecipeService(recipeRepo, images, logger)
	admin := service.NewAdminService(categoryRepo, userRepo, statsRepo, janitor)
	social := service.NewSocialService(socialRepo)

	// Create default admin user if configured
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		user, err := accounts.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			logger.Warn("failed to create admin user", zap.Error(err))
		} else {
			logger.Info("admin user ready", zap.String("email", user.Email))
		}
	}

	// Background jobs
	sched := scheduler.New(logger, 5*time.Minute)
	if cfg.Janitor.Enabled {
		if err := sched.Add(cfg.Janitor.Schedule, janitor); err != nil {
			return fmt.Errorf("failed to schedule image janitor: %w", err)
		}
	}
	sched.Start(ctx)
	defer sched.Stop()

	authMiddleware := middleware.NewAuthMiddleware(issuer, userRepo, logger)
	handler := api.NewHandler(api.HandlerDeps{
		Accounts:       accounts,
		Recipes:        recipes,
		Admin:          admin,
		Social:         social,
		DB:             db,
		Jobs:           sched,
		Logger:         logger,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})

	routerCfg := api.RouterConfig{RecipeWritePolicy: cfg.Policy.RecipeWrite, Logger: logger}
	if cfg.Uploads.Backend == config.ImageBackendLocal {
		routerCfg.UploadsRoot = cfg.Uploads.Root
	}
	router := api.NewRouter(handler, authMiddleware, routerCfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("write_policy", cfg.Policy.RecipeWrite))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newImageStore builds the configured backend. Local images are published
// under /uploads/ at the upload directory's path relative to the served root.
func newImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, error) {
	if cfg.Uploads.Backend == config.ImageBackendS3 {
		client, err := imagestore.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		return imagestore.NewS3Store(client, cfg.S3, cfg.Uploads.MaxBytes), nil
	}

	rel, err := filepath.Rel(cfg.Uploads.Root, cfg.Uploads.Dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("upload dir %q must be inside %q", cfg.Uploads.Dir, cfg.Uploads.Root)
	}
	store, err := imagestore.NewLocalStore(cfg.Uploads.Dir, path.Join("/uploads", filepath.ToSlash(rel)), cfg.Uploads.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload dir: %w", err)
	}
	return store, nil
}
