// Package usecase はreviewsフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authentity "review_backend/internal/feature/auth/domain/entity"
	authusecase "review_backend/internal/feature/auth/usecase"
	"review_backend/internal/feature/reviews/domain/entity"
	sentiment "review_backend/internal/feature/sentiment/domain/entity"
)

// ReviewRepository はレビューの永続化層を抽象化します。
// 読み出し系は投稿者を解決済みのレビューを新しい順に返します。
type ReviewRepository interface {
	// Create はレビューを1回の書き込みで保存し、IDと日時を設定します。
	Create(ctx context.Context, review *entity.Review) error
	// ListAll は全レビューを作成日時の降順で返します。
	ListAll(ctx context.Context) ([]entity.Review, error)
	// ListByAuthor は指定ユーザーのレビューを作成日時の降順で返します。
	ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error)
}

// AuthorFinder は投稿者の存在確認と解決に使用します。
type AuthorFinder interface {
	FindByID(ctx context.Context, id string) (*authentity.User, error)
}

// Classifier はコメントの感情を分類します。
type Classifier interface {
	Classify(ctx context.Context, text string) (sentiment.Prediction, error)
}

// reviewUsecase はレビューのビジネスロジックを実装します。
type reviewUsecase struct {
	reviews    ReviewRepository
	authors    AuthorFinder
	classifier Classifier
}

// NewReviewUsecase はreviewUsecaseの新しいインスタンスを生成します。
func NewReviewUsecase(reviews ReviewRepository, authors AuthorFinder, classifier Classifier) *reviewUsecase {
	return &reviewUsecase{reviews: reviews, authors: authors, classifier: classifier}
}

// CreateReview は投稿者を確認し、コメントを分類してからレビューを保存します。
// 分類に失敗した場合は何も保存しません。
func (u *reviewUsecase) CreateReview(ctx context.Context, authorID, service, comment string) (*entity.Review, error) {
	author, err := u.authors.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, authusecase.ErrUserNotFound) || errors.Is(err, authusecase.ErrInvalidID) {
			return nil, fmt.Errorf("%w: %s", ErrAuthorNotFound, authorID)
		}
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}

	pred, err := u.classifier.Classify(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to classify comment: %w", err)
	}

	review := &entity.Review{
		AuthorID: author.ID,
		Author:   *author,
		Service:  service,
		Comment:  comment,
		Label:    pred.Label,
		Score:    pred.Score,
	}
	if err := u.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	slog.Info("review created", "review_id", review.ID, "author_id", author.ID, "label", review.Label, "score", review.Score)
	return review, nil
}

// ListAllReviews は全レビューを新しい順に返します。
func (u *reviewUsecase) ListAllReviews(ctx context.Context) ([]entity.Review, error) {
	out, err := u.reviews.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return out, nil
}

// ListReviewsByAuthor は指定ユーザーのレビューを新しい順に返します。
func (u *reviewUsecase) ListReviewsByAuthor(ctx context.Context, authorID string) ([]entity.Review, error) {
	out, err := u.reviews.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for %s: %w", authorID, err)
	}
	return out, nil
}
