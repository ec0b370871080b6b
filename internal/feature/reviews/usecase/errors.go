package usecase

import "errors"

// ErrAuthorNotFound is returned when a review references a user that does not exist.
var ErrAuthorNotFound = errors.New("author not found")
