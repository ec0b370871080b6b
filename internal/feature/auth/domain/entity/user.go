// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered account. Admin and regular accounts are
// disjoint: an email may exist once per store, and IsAdmin never changes.
type User struct {
	// ID is the store-assigned identifier (ObjectID hex or UUID).
	ID string `gorm:"primaryKey;size:36"`

	Name string `gorm:"size:255;not null"`

	// Email is lower-cased before storage and unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password is the bcrypt hash. It is never serialized to clients.
	Password string `gorm:"size:255;not null" json:"-"`

	IsAdmin bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
