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

	"review_backend/internal/app/di"
	"review_backend/internal/app/router"
	"review_backend/internal/config"
	authhandler "review_backend/internal/feature/auth/transport/handler"
	authusecase "review_backend/internal/feature/auth/usecase"
	reviewhandler "review_backend/internal/feature/reviews/transport/handler"
	reviewusecase "review_backend/internal/feature/reviews/usecase"
	sentimenthandler "review_backend/internal/feature/sentiment/transport/handler"
	sentimentusecase "review_backend/internal/feature/sentiment/usecase"
	platformhandler "review_backend/internal/platform/http/handler"
	jwtmw "review_backend/internal/platform/jwt"
	"review_backend/internal/platform/logging"
	appredis "review_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 設定
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// 分類器（起動時に一度だけ構築）
	scorer, err := di.NewScorer(ctx, cfg.Classifier)
	if err != nil {
		return err
	}
	sentimentUC := sentimentusecase.NewSentimentUsecase(scorer, cfg.Classifier.Backend)

	// ストア
	store, err := di.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()
	if cfg.Database.RunMigrations {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	// Redisキャッシュ（任意）
	checks := map[string]platformhandler.Check{"store": store.Ping}
	rdb := di.NewRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}()
		checks["redis"] = func(ctx context.Context) error { return appredis.Ping(ctx, rdb) }
	}
	reviewRepo := di.NewReviewRepository(store, rdb, cfg.Redis)

	// JWT_SECRETチェック（開発中の注意喚起）
	var tokens authusecase.JWTGenerator
	if cfg.JWT.Secret == "" {
		slog.Warn("JWT_SECRET is not set; login responses carry no token and /me is disabled")
	} else {
		tokens = jwtmw.NewGenerator(cfg.JWT.Secret, cfg.JWT.Expiration)
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(store.Users, tokens)
	reviewUC := reviewusecase.NewReviewUsecase(reviewRepo, authUC, sentimentUC)

	// ルータ生成
	engine := router.NewRouter(router.Handlers{
		Auth:     authhandler.NewAuthHandler(authUC),
		Reviews:  reviewhandler.NewReviewHandler(reviewUC),
		Realtime: sentimenthandler.NewRealtimeHandler(sentimentUC, cfg.Server.PredictRateLimit, cfg.Server.PredictBurst),
		Health:   platformhandler.NewHealthHandler(checks),
	}, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "store", store.Driver, "classifier", cfg.Classifier.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
