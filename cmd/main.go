package main

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

	"github.com/Dosada05/duel-system/config"
	"github.com/Dosada05/duel-system/db"
	"github.com/Dosada05/duel-system/handlers"
	"github.com/Dosada05/duel-system/notifications"
	"github.com/Dosada05/duel-system/repositories"
	api "github.com/Dosada05/duel-system/routes"
	"github.com/Dosada05/duel-system/services"
	"github.com/Dosada05/duel-system/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Notification hub and dispatcher. Dispatch is best-effort: a failed
	// delivery is logged inside the dispatcher and never reaches the
	// lifecycle operations.
	wsHub := notifications.NewHub()
	go wsHub.Run()

	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	dispatcher := notifications.NewAsyncDispatcher(wsHub, logger, 256)
	go dispatcher.Run(dispatcherCtx)
	logger.Info("notification dispatcher started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	duelRepo := repositories.NewPostgresDuelRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, cloudflareUploader)
	duelService := services.NewDuelService(
		duelRepo,
		userRepo,
		services.NewTokenIssuer(),
		dispatcher,
		services.DuelConfig{
			InviteWindow:      cfg.InviteWindow,
			DuelDuration:      cfg.DuelDuration,
			MaxPendingPerUser: cfg.MaxPendingPerUser,
			MinTier:           cfg.MinTier,
		},
		logger,
	)
	logger.Info("services initialized")

	sweeper := services.NewSweeper(duelService, cfg.SweepInterval, logger)
	scheduler, err := sweeper.Start(context.Background())
	if err != nil {
		logger.Error("failed to start sweep scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to shut down sweep scheduler", slog.Any("error", err))
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	duelHandler := handlers.NewDuelHandler(duelService)
	sweepHandler := handlers.NewSweepHandler(sweeper)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.RouterConfig{
			JWTSecret:       cfg.JWTSecretKey,
			SweepSecret:     cfg.SweepSecret,
			ScoreFeedSecret: cfg.ScoreFeedSecret,
			BillingSecret:   cfg.BillingSecret,
		},
		authHandler,
		userHandler,
		duelHandler,
		sweepHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
