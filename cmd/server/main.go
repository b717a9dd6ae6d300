package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/database"
	"github.com/examforge/examforge-backend/internal/handler"
	"github.com/examforge/examforge-backend/internal/logger"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/router"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/validator"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamForge Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examRepo := repository.NewExamRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)

	tokenService := service.NewTokenService(cfg)
	examService := service.NewExamService(examRepo, rdb, cfg.DefinitionCacheTTL, log)
	sessionService := service.NewSessionService(sessionRepo, examService, log)
	answerService := service.NewAnswerService(answerRepo, sessionRepo, examService, log)
	gradingService := service.NewGradingService(sessionRepo, answerRepo, examService, log)

	handlers := &router.Handlers{
		Session:   handler.NewSessionHandler(sessionService, answerService, gradingService, examService),
		ExamAdmin: handler.NewExamAdminHandler(examService, gradingService),
		Clock:     handler.NewClockHandler(sessionService, log, cfg.AllowedOrigins),
	}

	r := router.SetupRouter(tokenService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
