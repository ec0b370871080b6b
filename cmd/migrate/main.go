package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"review_backend/internal/app/di"
	"review_backend/internal/config"
	"review_backend/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := di.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("migration failed", "driver", store.Driver, "error", err)
		os.Exit(1)
	}

	// 古いレビュー一覧のキャッシュを破棄
	if rdb := di.NewRedis(ctx, cfg.Redis); rdb != nil {
		defer func() { _ = rdb.Close() }()
		if err := di.NewReviewRepository(store, rdb, cfg.Redis).Flush(ctx); err != nil {
			slog.Warn("failed to flush review cache", "error", err)
		}
	}

	slog.Info("migrate ok", "driver", store.Driver)
}
