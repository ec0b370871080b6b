//go:build integration

package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"review_backend/internal/platform/mongodb"
	"review_backend/internal/testinfra"
)

func TestEnsureIndexes_UniqueEmail(t *testing.T) {
	db := testinfra.StartMongo(t)
	ctx := context.Background()

	// idempotent
	require.NoError(t, mongodb.EnsureIndexes(ctx, db))
	require.NoError(t, mongodb.Ping(ctx, db.Client()))

	users := db.Collection(mongodb.UsersCollection)
	_, err := users.InsertOne(ctx, bson.M{"email": "a@example.com"})
	require.NoError(t, err)

	_, err = users.InsertOne(ctx, bson.M{"email": "a@example.com"})
	assert.True(t, mongo.IsDuplicateKeyError(err), "expected duplicate key error, got %v", err)
}
