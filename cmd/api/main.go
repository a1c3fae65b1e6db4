package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safeher/platform/internal/alert"
	"github.com/safeher/platform/internal/auth"
	"github.com/safeher/platform/internal/config"
	"github.com/safeher/platform/internal/db"
	"github.com/safeher/platform/internal/docstore"
	"github.com/safeher/platform/internal/feed"
	apihttp "github.com/safeher/platform/internal/http"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/service"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Logger = logger

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("api terminated")
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	queries := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	docs, err := buildDocStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("configure storage: %w", err)
	}

	var notifier alert.Notifier
	if cfg.AlertWebhookURL != "" {
		notifier = alert.NewWebhookNotifier(cfg.AlertWebhookURL)
	}

	hub := feed.NewHub(rdb, logger)
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("feed hub stopped")
		}
	}()

	authService := service.NewAuthService(queries, rdb, jwtManager, docs, cfg.CommunityCodes, cfg.JWTRefreshTTL)
	sosService := service.NewSOSService(queries, hub, notifier)
	contactService := service.NewContactService(queries)
	issueService := service.NewIssueService(queries)
	chatService := service.NewChatService(queries)
	moderationService := service.NewModerationService(queries)
	zoneService := service.NewZoneService(queries)

	router := apihttp.NewRouter(apihttp.Deps{
		Config:     cfg,
		Logger:     logger,
		Auth:       apihttp.NewAuthHandler(authService),
		Women:      apihttp.NewWomenHandler(contactService, sosService, moderationService),
		Police:     apihttp.NewPoliceHandler(sosService, zoneService, chatService, issueService),
		Infra:      apihttp.NewInfrastructureHandler(issueService),
		Cyber:      apihttp.NewCybersecurityHandler(moderationService),
		Emergency:  apihttp.NewEmergencyHandler(sosService, chatService),
		Admin:      apihttp.NewAdminHandler(moderationService),
		SSE:        apihttp.NewSSEHandler(hub, cfg.SSEHeartbeat, logger),
		JWTService: authService,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(pingCtx); err != nil {
				return err
			}
			return rdb.Ping(pingCtx).Err()
		},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDocStore(cfg config.StorageConfig) (docstore.Store, error) {
	switch cfg.Provider {
	case "", "noop":
		return docstore.NoopStore{}, nil
	case "s3":
		return docstore.NewS3Store(docstore.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicDomain: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
