package di

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	"review_backend/internal/config"
	authadapters "review_backend/internal/feature/auth/adapters"
	authentity "review_backend/internal/feature/auth/domain/entity"
	authusecase "review_backend/internal/feature/auth/usecase"
	reviewadapters "review_backend/internal/feature/reviews/adapters"
	reviewentity "review_backend/internal/feature/reviews/domain/entity"
	reviewusecase "review_backend/internal/feature/reviews/usecase"
	"review_backend/internal/platform/db"
	"review_backend/internal/platform/mongodb"
)

// Store bundles the repositories of one persistence backend with its
// lifecycle hooks.
type Store struct {
	Driver  string
	Users   authusecase.UserRepository
	Reviews reviewusecase.ReviewRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Migrate creates indexes (mongo) or tables (gorm). It is idempotent.
func (s *Store) Migrate(ctx context.Context) error { return s.migrate(ctx) }

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error { return s.close(ctx) }

// OpenStore connects to the configured backend and builds its repositories.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return newMongoStore(client, client.Database(cfg.Mongo.Database)), nil
	case config.StorePostgres, config.StoreSQLite:
		gdb, err := db.Open(db.Config{
			Driver:     cfg.Store.Driver,
			User:       cfg.Database.User,
			Password:   cfg.Database.Password,
			Name:       cfg.Database.Name,
			Host:       cfg.Database.Host,
			Port:       cfg.Database.Port,
			SSLMode:    cfg.Database.SSLMode,
			SQLitePath: cfg.Database.SQLitePath,
		}, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return NewGormStore(cfg.Store.Driver, gdb), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func newMongoStore(client *mongo.Client, database *mongo.Database) *Store {
	return &Store{
		Driver:  config.StoreMongo,
		Users:   authadapters.NewUserMongo(database),
		Reviews: reviewadapters.NewReviewMongo(database),
		ping: func(ctx context.Context) error {
			return mongodb.Ping(ctx, client)
		},
		migrate: func(ctx context.Context) error {
			return mongodb.EnsureIndexes(ctx, database)
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(driver string, gdb *gorm.DB) *Store {
	return &Store{
		Driver:  driver,
		Users:   authadapters.NewUserGorm(gdb),
		Reviews: reviewadapters.NewReviewGorm(gdb),
		ping: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
		migrate: func(ctx context.Context) error {
			if err := db.Migrate(gdb.WithContext(ctx), &authentity.User{}, &reviewentity.Review{}); err != nil {
				return err
			}
			slog.Info("gorm migration complete", "driver", driver)
			return nil
		},
		close: func(ctx context.Context) error {
			return db.Close(gdb)
		},
	}
}
