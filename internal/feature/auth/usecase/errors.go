package usecase

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the given email and role, or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword is returned when the password does not match the stored hash.
	ErrWrongPassword = errors.New("wrong password")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidID is returned when an ID is not in the format the store assigns.
	ErrInvalidID = errors.New("invalid user id")
)
