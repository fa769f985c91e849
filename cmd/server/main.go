package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"explain-it/internal/config"
	"explain-it/internal/db"
	"explain-it/internal/game"
	"explain-it/internal/roomcode"
	"explain-it/internal/server"
	"explain-it/internal/store"
)

func main() {
	dotenvErr := config.LoadDotEnv(".env.local", ".env")
	cfg, err := config.Load()
	logger := cfg.Logger(os.Stdout)
	if dotenvErr != nil {
		logger.Warn().Err(dotenvErr).Msg("failed to load .env")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is not set")
	}
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, ledger := openStore(cfg, logger)
	registry := openRegistry(ctx, cfg, logger)
	alloc, err := roomcode.NewAllocator(registry, cfg.RoomCodeDigits, cfg.RoomCodeMaxAttempts)
	if err != nil {
		logger.Fatal().Err(err).Msg("room code allocator")
	}

	svc := game.NewService(sessions, alloc, game.Options{
		Ledger:          ledger,
		Logger:          &logger,
		RecentWindow:    cfg.RecentGamesWindow,
		LogUpdates:      cfg.LogGameUpdates,
		CreateMaxTries:  cfg.CreateGameMaxTries,
		PresenceTimeout: cfg.PresenceTimeout,
	})
	if err := svc.Rehydrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("rehydrate room codes")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(svc, cfg, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("explain-it server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	svc.Wait()
}

func openStore(cfg config.Config, logger zerolog.Logger) (game.Store, game.Ledger) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL is not set, keeping games in memory")
		mem := store.NewMemory()
		return mem, mem
	}
	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if cfg.DatabaseDriver == "sqlite" {
		if err := db.Migrate(conn); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}
	gormStore := store.NewGorm(conn)
	return gormStore, gormStore
}

func openRegistry(ctx context.Context, cfg config.Config, logger zerolog.Logger) roomcode.Registry {
	if cfg.RedisURL == "" {
		return roomcode.NewMemoryRegistry()
	}
	client, err := roomcode.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	logger.Info().Msg("sharing room codes through redis")
	return roomcode.NewRedisRegistry(client, cfg.RoomCodeClaimTTL)
}
