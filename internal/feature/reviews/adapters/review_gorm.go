// Package adapters はreviewsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"review_backend/internal/feature/reviews/domain/entity"
	"review_backend/internal/feature/reviews/usecase"
)

// reviewGorm はReviewRepositoryインターフェースのGORM実装です。
// 投稿者は users テーブルとのJOINで解決します。
type reviewGorm struct {
	db *gorm.DB
}

// reviewGormがReviewRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.ReviewRepository = (*reviewGorm)(nil)

// NewReviewGorm はreviewGormの新しいインスタンスを生成します。
func NewReviewGorm(db *gorm.DB) *reviewGorm {
	return &reviewGorm{db: db}
}

// Create はレビューを1行挿入します。関連する投稿者の行には書き込みません。
func (r *reviewGorm) Create(ctx context.Context, review *entity.Review) error {
	if review == nil {
		return errors.New("review is nil")
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

// ListAll は全レビューを作成日時の降順で返します。
func (r *reviewGorm) ListAll(ctx context.Context) ([]entity.Review, error) {
	return r.list(r.db.WithContext(ctx))
}

// ListByAuthor は指定ユーザーのレビューを作成日時の降順で返します。
func (r *reviewGorm) ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error) {
	return r.list(r.db.WithContext(ctx).Where("reviews.author_id = ?", authorID))
}

func (r *reviewGorm) list(q *gorm.DB) ([]entity.Review, error) {
	out := []entity.Review{}
	err := q.Joins("Author").
		Order("reviews.created_at DESC").
		Order("reviews.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
