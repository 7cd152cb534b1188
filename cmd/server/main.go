package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phrasebox/phrasebox/internal/common/clock"
	"github.com/phrasebox/phrasebox/internal/common/uuid"
	"github.com/phrasebox/phrasebox/internal/handlers/httpapi"
	phraseRepo "github.com/phrasebox/phrasebox/internal/repositories/phrase"
	playerRepo "github.com/phrasebox/phrasebox/internal/repositories/player"
	progressRepo "github.com/phrasebox/phrasebox/internal/repositories/progress"
	"github.com/phrasebox/phrasebox/internal/scoring"
	"github.com/phrasebox/phrasebox/internal/services/delivery"
	"github.com/phrasebox/phrasebox/internal/services/push"
)

func main() {
	// A missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	cfg := &config{}
	cmd := newCmd(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config) error {
	level, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return err
	}
	log.Info().Str("addr", cfg.redisAddr).Msg("connected to redis")

	phrases, err := phraseRepo.NewRedis(&phraseRepo.Config{RedisClient: redisClient})
	if err != nil {
		return err
	}
	players, err := playerRepo.NewRedis(&playerRepo.Config{RedisClient: redisClient})
	if err != nil {
		return err
	}
	progress, err := progressRepo.NewRedis(&progressRepo.Config{RedisClient: redisClient})
	if err != nil {
		return err
	}

	clk := &clock.DefaultClock{}

	hub, err := push.NewHub(&push.Config{Clock: clk})
	if err != nil {
		return err
	}

	deliverySvc, err := delivery.New(&delivery.Config{
		PhraseRepo:     phrases,
		PlayerRepo:     players,
		ProgressRepo:   progress,
		Scorer:         scoring.New(nil),
		Publisher:      hub,
		Clock:          clk,
		UUID:           uuid.New(),
		CandidateLimit: cfg.candidateLimit,
		ActiveWindow:   cfg.activeWindow,
	})
	if err != nil {
		return err
	}

	server, err := httpapi.New(&httpapi.Config{
		DeliveryService: deliverySvc,
		Hub:             hub,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.listenAddr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis client")
	}

	err = <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
