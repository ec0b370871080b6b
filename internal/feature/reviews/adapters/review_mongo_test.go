package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	sentiment "review_backend/internal/feature/sentiment/domain/entity"
)

func TestListPipeline(t *testing.T) {
	all := listPipeline(nil)
	require.Len(t, all, 3)
	assert.Equal(t, "$sort", all[0][0].Key)
	assert.Equal(t, "$lookup", all[1][0].Key)
	assert.Equal(t, "$unwind", all[2][0].Key)

	oid := bson.NewObjectID()
	byAuthor := listPipeline(bson.D{{Key: "user", Value: oid}})
	require.Len(t, byAuthor, 4)
	assert.Equal(t, "$match", byAuthor[0][0].Key)
	assert.Equal(t, bson.D{{Key: "user", Value: oid}}, byAuthor[0][0].Value)
}

func TestReviewWithAuthor_Decode(t *testing.T) {
	userID := bson.NewObjectID()
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	raw, err := bson.Marshal(bson.M{
		"_id":       bson.NewObjectID(),
		"user":      userID,
		"service":   "Plumbing",
		"comment":   "Fixed fast",
		"label":     "positive",
		"score":     0.88,
		"createdAt": created,
		"updatedAt": created,
		"author": bson.M{
			"_id":      userID,
			"name":     "Carol",
			"email":    "carol@example.com",
			"password": "hash",
			"isAdmin":  false,
		},
	})
	require.NoError(t, err)

	var doc reviewWithAuthor
	require.NoError(t, bson.Unmarshal(raw, &doc))
	r := doc.toEntity()

	assert.Equal(t, userID.Hex(), r.AuthorID)
	assert.Equal(t, "Carol", r.Author.Name)
	assert.Equal(t, userID.Hex(), r.Author.ID)
	assert.Equal(t, "Plumbing", r.Service)
	assert.Equal(t, sentiment.Positive, r.Label)
	assert.Equal(t, 0.88, r.Score)
	assert.True(t, created.Equal(r.CreatedAt))
}

func TestReviewWithAuthor_MissingAuthor(t *testing.T) {
	userID := bson.NewObjectID()
	doc := reviewWithAuthor{reviewDocument: reviewDocument{ID: bson.NewObjectID(), User: userID}}

	r := doc.toEntity()

	assert.Equal(t, userID.Hex(), r.Author.ID)
	assert.Empty(t, r.Author.Name)
}
