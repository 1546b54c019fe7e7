package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmercer/shelfmark/internal/models"
)

// AddReview persists a review. A zero ID gets a fresh UUID. Reviews are
// immutable once written.
func (db *DB) AddReview(ctx context.Context, r *models.Review) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, content, status_at_time, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID.String(), r.BookID.String(), r.Content, string(r.StatusAtTime), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert review: %w", err)
	}
	return nil
}

// ListReviews returns a book's reviews, newest first.
func (db *DB) ListReviews(ctx context.Context, bookID uuid.UUID) ([]models.Review, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, book_id, content, status_at_time, created_at
		FROM reviews
		WHERE book_id = ?
		ORDER BY created_at DESC, id
	`, bookID.String())
	if err != nil {
		return nil, fmt.Errorf("store: list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var (
			r          models.Review
			id, bid    string
			statusThen string
		)
		if err := rows.Scan(&id, &bid, &r.Content, &statusThen, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan review: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: corrupt review id: %w", err)
		}
		if r.BookID, err = uuid.Parse(bid); err != nil {
			return nil, fmt.Errorf("store: corrupt review book id: %w", err)
		}
		r.StatusAtTime = models.Status(statusThen)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
