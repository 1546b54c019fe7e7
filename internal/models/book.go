// Package models defines the domain types for Shelfmark.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the reading status of a book.
type Status string

const (
	StatusWishlist  Status = "wishlist"
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether the status is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusWishlist, StatusReading, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Book is one tracked title in the library.
type Book struct {
	ID            uuid.UUID `json:"id"`
	WorkOLID      string    `json:"work_olid,omitempty"`
	EditionOLID   string    `json:"edition_olid,omitempty"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Status        Status    `json:"status"`
	StartedDate   *Date     `json:"started_date,omitempty"`
	CompletedDate *Date     `json:"completed_date,omitempty"`
	RatingTag     string    `json:"rating_tag,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EverCompleted reports whether the book has at some point reached
// completed status. The rating tag is set exactly once, at completion,
// and never cleared by later transitions, so its presence is the marker.
func (b *Book) EverCompleted() bool { return b.RatingTag != "" }

// Review is an immutable note attached to a book.
type Review struct {
	ID           uuid.UUID `json:"id"`
	BookID       uuid.UUID `json:"book_id"`
	Content      string    `json:"content"`
	StatusAtTime Status    `json:"status_at_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookPatch is a partial update applied to a stored book. Nil pointer
// fields are left untouched; date columns follow their DateWrite mode.
// Every applied patch bumps updated_at.
type BookPatch struct {
	Status    *Status
	Started   DateWrite
	Completed DateWrite
	RatingTag *string
}
