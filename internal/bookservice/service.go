// Package bookservice coordinates the store, the status lifecycle, and
// catalog metadata enrichment.
package bookservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jmercer/shelfmark/internal/apperr"
	"github.com/jmercer/shelfmark/internal/lifecycle"
	"github.com/jmercer/shelfmark/internal/models"
	"github.com/jmercer/shelfmark/internal/openlibrary"
	"github.com/jmercer/shelfmark/internal/store"
)

// MetadataProvider supplies catalog metadata keyed by Open Library
// identifiers. Lookup failures are expected and degrade to absent fields.
type MetadataProvider interface {
	Search(ctx context.Context, q string, page, limit int) ([]openlibrary.Doc, error)
	WorkRating(ctx context.Context, workOLID string) (*openlibrary.Rating, error)
	WorkDescription(ctx context.Context, workOLID string) (string, error)
	ArchiveAvailability(ctx context.Context, editionOLID string) (*openlibrary.ArchivePreview, error)
	CoverURLs(editionOLID string) *openlibrary.CoverURLs
}

// EventPublisher receives notifications after successful writes.
type EventPublisher interface {
	PublishBookEvent(kind string, bookID uuid.UUID, status models.Status)
}

// Service is the application service over the book record store.
type Service struct {
	store  store.BookStore
	meta   MetadataProvider // nil disables enrichment
	events EventPublisher   // nil disables event publishing
	logger *slog.Logger
}

// NewService creates a new book service. meta and events may be nil.
func NewService(st store.BookStore, meta MetadataProvider, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{store: st, meta: meta, events: events, logger: logger}
}

// Enrichment carries the best-effort catalog metadata for a book page.
type Enrichment struct {
	Covers      *openlibrary.CoverURLs      `json:"cover_urls,omitempty"`
	Rating      *openlibrary.Rating         `json:"rating,omitempty"`
	Description string                      `json:"description,omitempty"`
	Archive     *openlibrary.ArchivePreview `json:"archive_preview,omitempty"`
}

// BookDetail is a book with its reviews and optional metadata.
type BookDetail struct {
	Book     models.Book     `json:"book"`
	Reviews  []models.Review `json:"reviews"`
	Metadata *Enrichment     `json:"metadata,omitempty"`
}

// AddBookParams identifies a book to add to the library. WorkOLID is the
// dedup key; books without catalog linkage are always created fresh.
type AddBookParams struct {
	WorkOLID    string
	EditionOLID string
	Title       string
	Author      string
}

// EnsureBook returns the existing book for the given work, or creates a
// minimal wishlist entry. The bool result reports whether a new book was
// created.
func (s *Service) EnsureBook(ctx context.Context, p AddBookParams) (*models.Book, bool, error) {
	if p.WorkOLID != "" {
		existing, err := s.store.GetBookByWork(ctx, p.WorkOLID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, false, fmt.Errorf("lookup by work: %w", err)
		}
	}

	b := &models.Book{
		WorkOLID:    p.WorkOLID,
		EditionOLID: p.EditionOLID,
		Title:       p.Title,
		Author:      p.Author,
		Status:      models.StatusWishlist,
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		return nil, false, err
	}
	s.publish("book.created", b.ID, b.Status)
	return b, true, nil
}

// ListBooks returns the library newest first, optionally filtered by status.
func (s *Service) ListBooks(ctx context.Context, status models.Status) ([]models.Book, error) {
	return s.store.ListBooks(ctx, status)
}

// ShelfSummary returns per-status book counts.
func (s *Service) ShelfSummary(ctx context.Context) (map[models.Status]int, error) {
	return s.store.CountByStatus(ctx)
}

// GetBook returns a book with its reviews and best-effort metadata.
// Metadata lookups never fail the request; they degrade to absent fields.
func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (*BookDetail, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &BookDetail{
		Book:     *b,
		Reviews:  reviews,
		Metadata: s.enrich(ctx, b),
	}, nil
}

// enrich collects catalog metadata for a book, swallowing every provider
// failure.
func (s *Service) enrich(ctx context.Context, b *models.Book) *Enrichment {
	if s.meta == nil || (b.WorkOLID == "" && b.EditionOLID == "") {
		return nil
	}
	e := &Enrichment{Covers: s.meta.CoverURLs(b.EditionOLID)}

	if rating, err := s.meta.WorkRating(ctx, b.WorkOLID); err == nil {
		e.Rating = rating
	} else {
		s.logger.Debug("rating lookup failed", "work", b.WorkOLID, "error", err)
	}
	if desc, err := s.meta.WorkDescription(ctx, b.WorkOLID); err == nil {
		e.Description = desc
	} else {
		s.logger.Debug("description lookup failed", "work", b.WorkOLID, "error", err)
	}
	if preview, err := s.meta.ArchiveAvailability(ctx, b.EditionOLID); err == nil {
		e.Archive = preview
	} else {
		s.logger.Debug("archive lookup failed", "edition", b.EditionOLID, "error", err)
	}
	return e
}

// SearchCatalog queries the metadata provider. With no provider wired it
// returns an empty result rather than an error.
func (s *Service) SearchCatalog(ctx context.Context, q string, page, limit int) ([]openlibrary.Doc, error) {
	if s.meta == nil {
		return nil, nil
	}
	docs, err := s.meta.Search(ctx, q, page, limit)
	if err != nil {
		// The catalog being down must not break the page.
		s.logger.Warn("catalog search failed", "query", q, "error", err)
		return nil, nil
	}
	return docs, nil
}

// StartReading transitions a book into reading. The optional started date
// is validated and stored with coalesce semantics.
func (s *Service) StartReading(ctx context.Context, id uuid.UUID, started models.DatePatch) (*models.Book, error) {
	return s.transition(ctx, id, models.StatusReading, lifecycle.Payload{Started: started})
}

// MarkCompleted transitions a book into completed, recording the rating
// tag and the optional completed date.
func (s *Service) MarkCompleted(ctx context.Context, id uuid.UUID, ratingTag string, completed models.DatePatch) (*models.Book, error) {
	return s.transition(ctx, id, models.StatusCompleted, lifecycle.Payload{RatingTag: ratingTag, Completed: completed})
}

// Drop transitions a book into dropped, unless it was ever completed.
func (s *Service) Drop(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.transition(ctx, id, models.StatusDropped, lifecycle.Payload{})
}

// MoveToWishlist returns a book to the wishlist, leaving dates untouched.
func (s *Service) MoveToWishlist(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.transition(ctx, id, models.StatusWishlist, lifecycle.Payload{})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target models.Status, p lifecycle.Payload) (*models.Book, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := lifecycle.Plan(b, target, p)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, patch, "book.updated")
}

// EditStartedDate edits the started date in any status, re-validated
// against the stored completed date. An explicit null clears the field.
func (s *Service) EditStartedDate(ctx context.Context, id uuid.UUID, p models.DatePatch) (*models.Book, error) {
	return s.editDate(ctx, id, p, lifecycle.PlanStartedEdit)
}

// EditCompletedDate edits the completed date in any status.
func (s *Service) EditCompletedDate(ctx context.Context, id uuid.UUID, p models.DatePatch) (*models.Book, error) {
	return s.editDate(ctx, id, p, lifecycle.PlanCompletedEdit)
}

func (s *Service) editDate(ctx context.Context, id uuid.UUID, p models.DatePatch,
	plan func(*models.Book, models.DatePatch) (models.BookPatch, error)) (*models.Book, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := plan(b, p)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, patch, "book.updated")
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, patch models.BookPatch, eventKind string) (*models.Book, error) {
	if err := s.store.UpdateBook(ctx, id, patch); err != nil {
		return nil, err
	}
	updated, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(eventKind, updated.ID, updated.Status)
	return updated, nil
}

// AddReview attaches a review to a book, snapshotting the current status.
// Wishlist books cannot be reviewed.
func (s *Service) AddReview(ctx context.Context, bookID uuid.UUID, content string) (*models.Review, error) {
	b, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusWishlist {
		return nil, apperr.ErrIllegalAction
	}
	r := &models.Review{
		BookID:       bookID,
		Content:      content,
		StatusAtTime: b.Status,
	}
	if err := s.store.AddReview(ctx, r); err != nil {
		return nil, err
	}
	s.publish("review.added", bookID, b.Status)
	return r, nil
}

func (s *Service) publish(kind string, id uuid.UUID, status models.Status) {
	if s.events != nil {
		s.events.PublishBookEvent(kind, id, status)
	}
}
