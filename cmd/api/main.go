package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/devcircle/devcircle-go/internal/config"
	"github.com/devcircle/devcircle-go/internal/crypto"
	"github.com/devcircle/devcircle-go/internal/handler"
	"github.com/devcircle/devcircle-go/internal/identity"
	"github.com/devcircle/devcircle-go/internal/metrics"
	"github.com/devcircle/devcircle-go/internal/repository"
	"github.com/devcircle/devcircle-go/internal/security"
	"github.com/devcircle/devcircle-go/internal/service"
	"github.com/devcircle/devcircle-go/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(cfg.DatabaseDSN); err != nil {
			slog.Error("running migrations failed", "error", err)
			os.Exit(1)
		}
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	uploader, err := storage.NewS3Uploader(context.Background(), storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("object storage setup failed", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	sanitizer := security.NewSanitizer()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)

	authService := service.NewAuthService(service.AuthDeps{
		Users:            userRepo,
		Hasher:           crypto.NewHasher(cfg.BcryptCost),
		Tokens:           tokens,
		Verifier:         identity.NewGoogleVerifier(identity.GoogleConfig{ClientID: cfg.GoogleClientID, CertsURL: cfg.GoogleCertsURL}),
		Uploader:         uploader,
		Sanitizer:        sanitizer,
		Metrics:          collector,
		DefaultAvatarURL: cfg.DefaultAvatarURL,
	})
	userService := service.NewUserService(service.UserDeps{
		Users:         userRepo,
		Graph:         followRepo,
		Notifications: notificationRepo,
		Uploader:      uploader,
		Sanitizer:     sanitizer,
		Metrics:       collector,
	})
	postService := service.NewPostService(postRepo, uploader, sanitizer, collector)
	tagService := service.NewTagService(tagRepo)

	r := newRouter(routerDeps{
		Auth:          handler.NewAuthHandler(authService, cfg.UploadMaxBytes),
		Users:         handler.NewUserHandler(userService, cfg.UploadMaxBytes),
		Posts:         handler.NewPostHandler(postService, cfg.UploadMaxBytes),
		Tags:          handler.NewTagHandler(tagService),
		DB:            db,
		Tokens:        tokens,
		Metrics:       collector,
		Gatherer:      registry,
		Logger:        slog.Default(),
		AuthRateRPS:   cfg.AuthRateRPS,
		AuthRateBurst: cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
