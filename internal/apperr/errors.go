// Package apperr defines the domain error taxonomy. Callers match these
// with errors.Is to choose a response; any other error is an
// infrastructure failure.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced book does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a book with the same work identifier
	// is already in the library.
	ErrDuplicate = errors.New("already in library")
	// ErrInvalidDateRange is returned when an update would leave the
	// completed date earlier than the started date.
	ErrInvalidDateRange = errors.New("completed date cannot be earlier than started date")
	// ErrMissingRating is returned when completing a book without a rating tag.
	ErrMissingRating = errors.New("rating is required")
	// ErrIllegalTransition is returned for any status change outside the
	// state graph, including dropping a book that was ever completed.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrIllegalAction is returned for operations the current status
	// forbids, such as reviewing a wishlist book.
	ErrIllegalAction = errors.New("action not allowed in current status")
)
