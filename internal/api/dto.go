package api

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jmercer/shelfmark/internal/bookservice"
	"github.com/jmercer/shelfmark/internal/models"
)

// DateArg captures the three states of an optional date field in a JSON
// body: absent, explicit null (or empty string), and a concrete value.
// The zero value means absent.
type DateArg struct {
	present bool
	value   *models.Date
}

// UnmarshalJSON is only invoked when the field is present in the body,
// which is what lets absent and null stay distinguishable.
func (a *DateArg) UnmarshalJSON(b []byte) error {
	a.present = true
	a.value = nil
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return err
	}
	a.value = &d
	return nil
}

// Patch converts the argument to a domain date patch.
func (a DateArg) Patch() models.DatePatch {
	if !a.present {
		return models.KeepDate()
	}
	if a.value == nil {
		return models.ClearDate()
	}
	return models.SetDate(*a.value)
}

// AddBookRequest is the request body for adding a book to the library.
type AddBookRequest struct {
	WorkOLID    string `json:"work_olid"`
	EditionOLID string `json:"edition_olid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
}

// Validate checks the request fields.
func (r AddBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Author, validation.Required),
	)
}

// StartReadingRequest is the request body for the start-reading transition.
type StartReadingRequest struct {
	StartedDate DateArg `json:"started_date"`
}

// MarkCompletedRequest is the request body for the mark-completed transition.
type MarkCompletedRequest struct {
	RatingTag     string  `json:"rating_tag"`
	CompletedDate DateArg `json:"completed_date"`
}

// EditStartedDateRequest is the request body for the started-date edit.
type EditStartedDateRequest struct {
	StartedDate DateArg `json:"started_date"`
}

// EditCompletedDateRequest is the request body for the completed-date edit.
type EditCompletedDateRequest struct {
	CompletedDate DateArg `json:"completed_date"`
}

// AddReviewRequest is the request body for attaching a review.
type AddReviewRequest struct {
	Content string `json:"content"`
}

// Validate checks the request fields.
func (r AddReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// BookDetail is the full book response type (aliased from the domain layer).
type BookDetail = bookservice.BookDetail

// BookListResponse wraps library listings.
type BookListResponse struct {
	Books []models.Book `json:"books"`
	Total int           `json:"total"`
}
