// Package lifecycle implements the book status state machine and the
// date-consistency rule that every partial update must respect. All
// functions are pure: they read a book snapshot and return the partial
// write to apply, or a domain error from apperr.
package lifecycle

import (
	"github.com/jmercer/shelfmark/internal/apperr"
	"github.com/jmercer/shelfmark/internal/models"
)

// transitions is the full state graph: source status to the set of legal
// targets. Anything not listed is rejected. The completed->dropped edge is
// additionally guarded by the rating-tag check in Plan, which in practice
// blocks it for every book that completed normally.
var transitions = map[models.Status]map[models.Status]bool{
	models.StatusWishlist: {
		models.StatusReading: true,
	},
	models.StatusReading: {
		models.StatusWishlist:  true,
		models.StatusCompleted: true,
		models.StatusDropped:   true,
	},
	models.StatusCompleted: {
		models.StatusWishlist: true,
		models.StatusDropped:  true,
	},
	models.StatusDropped: {
		models.StatusWishlist: true,
		models.StatusReading:  true,
	},
}

// CanTransition reports whether the state graph contains the edge
// from -> to. It does not apply the rating-tag drop guard.
func CanTransition(from, to models.Status) bool {
	return transitions[from][to]
}

// ValidateDates checks that a partial date update keeps started <= completed.
// Each new value is a three-state patch: absent preserves the existing
// value, explicit null clears it, a value replaces it. Validation only
// applies when both final values are present.
func ValidateDates(existingStarted, existingCompleted *models.Date, newStarted, newCompleted models.DatePatch) error {
	started := newStarted.Apply(existingStarted)
	completed := newCompleted.Apply(existingCompleted)
	if started == nil || completed == nil {
		return nil
	}
	if completed.Before(*started) {
		return apperr.ErrInvalidDateRange
	}
	return nil
}

// Payload carries the optional inputs of a status transition.
type Payload struct {
	// RatingTag is required when the target status is completed.
	RatingTag string
	// Started is consumed by transitions into reading.
	Started models.DatePatch
	// Completed is consumed by transitions into completed.
	Completed models.DatePatch
}

// Plan checks a transition against the state graph and returns the
// partial write that realizes it.
//
// Per-target rules:
//   - reading: the optional started date is validated against the stored
//     completed date, then written with coalesce semantics so an absent
//     date never nulls out history.
//   - completed: a non-empty rating tag is required; the optional
//     completed date is validated against the stored started date and
//     written with overwrite semantics (an explicit null clears it).
//   - dropped: rejected outright when the book was ever completed; no
//     date checks otherwise.
//   - wishlist: unconditional; dates are left behind as historical record.
func Plan(b *models.Book, target models.Status, p Payload) (models.BookPatch, error) {
	if !target.Valid() || target == b.Status || !CanTransition(b.Status, target) {
		return models.BookPatch{}, apperr.ErrIllegalTransition
	}

	status := target
	patch := models.BookPatch{Status: &status}

	switch target {
	case models.StatusReading:
		if err := ValidateDates(b.StartedDate, b.CompletedDate, p.Started, models.KeepDate()); err != nil {
			return models.BookPatch{}, err
		}
		patch.Started = p.Started.Coalesce()

	case models.StatusCompleted:
		if p.RatingTag == "" {
			return models.BookPatch{}, apperr.ErrMissingRating
		}
		if err := ValidateDates(b.StartedDate, b.CompletedDate, models.KeepDate(), p.Completed); err != nil {
			return models.BookPatch{}, err
		}
		tag := p.RatingTag
		patch.RatingTag = &tag
		patch.Completed = p.Completed.Overwrite()

	case models.StatusDropped:
		if b.EverCompleted() {
			return models.BookPatch{}, apperr.ErrIllegalTransition
		}

	case models.StatusWishlist:
		// Dates are left untouched as historical record.
	}

	return patch, nil
}

// PlanStartedEdit plans an independent edit of the started date. Unlike
// transitions it is legal in any status, but still respects the date
// ordering invariant.
func PlanStartedEdit(b *models.Book, p models.DatePatch) (models.BookPatch, error) {
	if err := ValidateDates(b.StartedDate, b.CompletedDate, p, models.KeepDate()); err != nil {
		return models.BookPatch{}, err
	}
	return models.BookPatch{Started: p.Overwrite()}, nil
}

// PlanCompletedEdit plans an independent edit of the completed date.
func PlanCompletedEdit(b *models.Book, p models.DatePatch) (models.BookPatch, error) {
	if err := ValidateDates(b.StartedDate, b.CompletedDate, models.KeepDate(), p); err != nil {
		return models.BookPatch{}, err
	}
	return models.BookPatch{Completed: p.Overwrite()}, nil
}
