//go:build integration

package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authentity "review_backend/internal/feature/auth/domain/entity"
	authadapters "review_backend/internal/feature/auth/adapters"
	authusecase "review_backend/internal/feature/auth/usecase"
	"review_backend/internal/feature/reviews/domain/entity"
	sentiment "review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/testinfra"
)

func TestReviewMongo_RoundTrip(t *testing.T) {
	mdb := testinfra.StartMongo(t)
	ctx := context.Background()
	users := authadapters.NewUserMongo(mdb)
	repo := NewReviewMongo(mdb)

	alice := &authentity.User{Name: "Alice", Email: "alice@example.com", Password: "h"}
	bob := &authentity.User{Name: "Bob", Email: "bob@example.com", Password: "h"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	for _, r := range []*entity.Review{
		{AuthorID: alice.ID, Service: "A", Comment: "first", Label: sentiment.Neutral, Score: 0.5},
		{AuthorID: bob.ID, Service: "B", Comment: "second", Label: sentiment.Negative, Score: 0.7},
		{AuthorID: alice.ID, Service: "C", Comment: "third", Label: sentiment.Positive, Score: 0.9},
	} {
		require.NoError(t, repo.Create(ctx, r))
		require.Len(t, r.ID, 24)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Comment)
	assert.Equal(t, "first", all[2].Comment)
	assert.Equal(t, "Bob", all[1].Author.Name)

	mine, err := repo.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "Alice", r.Author.Name)
	}

	_, err = repo.ListByAuthor(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, authusecase.ErrInvalidID)
}
