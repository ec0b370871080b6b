package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"review_backend/internal/feature/auth/usecase"
)

func TestParseObjectID(t *testing.T) {
	oid := bson.NewObjectID()

	got, err := ParseObjectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "0d9e3c5e-8a43-4b55-9d1e-1c2f3a4b5c6d"} {
		_, err := ParseObjectID(bad)
		assert.ErrorIs(t, err, usecase.ErrInvalidID, "input %q", bad)
	}
}

func TestUserDocument_ToEntity(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := UserDocument{
		ID:        bson.NewObjectID(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Password:  "hash",
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	u := doc.ToEntity()

	assert.Equal(t, doc.ID.Hex(), u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "hash", u.Password)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserDocument_BSONFieldNames(t *testing.T) {
	raw, err := bson.Marshal(UserDocument{ID: bson.NewObjectID(), Email: "a@b.c", IsAdmin: true})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"_id", "name", "email", "password", "isAdmin", "createdAt", "updatedAt"} {
		assert.Contains(t, m, key)
	}
}
