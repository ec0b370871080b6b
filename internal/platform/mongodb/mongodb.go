// Package mongodb はMongoDBクライアントの接続・インデックス作成を提供します。
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// コレクション名
const (
	UsersCollection   = "users"
	ReviewsCollection = "reviews"
)

// Connect はMongoDBに接続し、timeout 以内にプライマリへPingできることを確認します。
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetAppName("review_backend")

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed after %s: %w", timeout, err)
	}

	slog.Info("connected to mongodb", "timeout", timeout)
	return client, nil
}

// Ping はプライマリへの疎通を確認します。
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes はユーザーとレビューのコレクションに必要なインデックスを作成します。
// 既存のインデックスがあれば何もしません。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", UsersCollection, err)
	}

	reviews := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_desc"),
		},
	}
	if _, err := db.Collection(ReviewsCollection).Indexes().CreateMany(ctx, reviews); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", ReviewsCollection, err)
	}
	return nil
}
