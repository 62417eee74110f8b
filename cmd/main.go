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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/matchlive/matchlive/config"
	"github.com/matchlive/matchlive/db"
	"github.com/matchlive/matchlive/handlers"
	"github.com/matchlive/matchlive/live"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	api "github.com/matchlive/matchlive/routes"
	"github.com/matchlive/matchlive/services"
	"github.com/matchlive/matchlive/storage"
)

const schedulerInterval = 30 * time.Second

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
		}
	}()
	logger.Info("database connection established")

	// Archive store is optional; without it completed games simply
	// keep their event logs in Postgres only.
	var archive storage.ObjectStore
	if cfg.R2Enabled() {
		archive, err = storage.NewCloudflareR2Store(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 archive store initialized")
	} else {
		logger.Info("R2 archive store not configured, event log archiving disabled")
	}

	wsHub := live.NewHub(logger)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	eventRepo := repositories.NewPostgresScoreEventRepository(dbConn)
	logger.Info("repositories initialized")

	onResult := func(game *models.Game) {
		env := &live.Envelope{
			Kind:   live.KindStatusChange,
			V:      live.SchemaVersion,
			GameID: game.ID,
			StatusChange: &live.StatusChange{
				Status:   game.Status,
				WinnerID: game.WinnerID,
			},
		}
		wsHub.BroadcastToRoom(live.RoomName(game.ID), env)
	}

	userService := services.NewUserService(userRepo)
	teamService := services.NewTeamService(teamRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, teamRepo, gameRepo, logger)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, gameRepo, teamRepo, logger)
	gameService := services.NewGameService(gameRepo, eventRepo)
	resultService := services.NewResultService(dbConn, gameRepo, tournamentRepo, onResult, logger)
	liveService := services.NewLiveService(dbConn, gameRepo, tournamentRepo, eventRepo, resultService, wsHub, archive, logger)
	logger.Info("services initialized")

	// The hub is started after the live service has installed its
	// writer handler.
	go wsHub.Run()

	stopScheduler, err := tournamentService.StartStatusScheduler(schedulerInterval)
	if err != nil {
		logger.Error("failed to start status scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := stopScheduler(); err != nil {
			logger.Error("failed to stop status scheduler", slog.Any("error", err))
		}
	}()

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, bracketService)
	teamHandler := handlers.NewTeamHandler(teamService)
	gameHandler := handlers.NewGameHandler(gameService, resultService)
	liveHandler := handlers.NewLiveHandler(wsHub, liveService, logger)
	userHandler := handlers.NewUserHandler(userService)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, tournamentHandler, teamHandler, gameHandler, liveHandler, userHandler)
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
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
