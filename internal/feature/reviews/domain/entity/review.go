// Package entity defines the domain entities for the reviews feature.
package entity

import (
	"time"

	authentity "review_backend/internal/feature/auth/domain/entity"
	sentiment "review_backend/internal/feature/sentiment/domain/entity"
)

// Review is an immutable service review. Label and Score are derived from
// Comment by the classifier when the review is created.
type Review struct {
	ID string `gorm:"primaryKey;size:36"`

	AuthorID string `gorm:"size:36;not null;index:idx_reviews_author_created,priority:1"`
	// Author is resolved by the store on every read.
	Author authentity.User `gorm:"foreignKey:AuthorID;references:ID"`

	Service string `gorm:"size:255;not null"`
	Comment string `gorm:"type:text;not null"`

	Label sentiment.Label `gorm:"size:16;not null"`
	Score float64         `gorm:"not null"`

	CreatedAt time.Time `gorm:"index;index:idx_reviews_author_created,priority:2"`
	UpdatedAt time.Time
}
