package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmercer/shelfmark/internal/models"
)

// BookStore defines the persistence operations for books and reviews.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with doubles.
type BookStore interface {
	CreateBook(ctx context.Context, b *models.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetBookByWork(ctx context.Context, workOLID string) (*models.Book, error)
	ListBooks(ctx context.Context, status models.Status) ([]models.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, patch models.BookPatch) error
	AddReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, bookID uuid.UUID) ([]models.Review, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	Close() error
}

// Verify *DB satisfies BookStore at compile time.
var _ BookStore = (*DB)(nil)
