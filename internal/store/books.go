package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/jmercer/shelfmark/internal/apperr"
	"github.com/jmercer/shelfmark/internal/models"
)

const bookColumns = `id, work_olid, edition_olid, title, author, status,
	started_date, completed_date, rating_tag, created_at, updated_at`

// CreateBook inserts a new book. A zero ID gets a fresh UUID and an empty
// status defaults to wishlist. Returns apperr.ErrDuplicate when another
// book already claims the same work identifier.
func (db *DB) CreateBook(ctx context.Context, b *models.Book) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = models.StatusWishlist
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID.String(), b.WorkOLID, b.EditionOLID, b.Title, b.Author, string(b.Status),
		dateToSQL(b.StartedDate), dateToSQL(b.CompletedDate), b.RatingTag, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return apperr.ErrDuplicate
		}
		return fmt.Errorf("store: insert book: %w", err)
	}
	return nil
}

// GetBook returns the book with the given id, or apperr.ErrNotFound.
func (db *DB) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books WHERE id = ?
	`, id.String())
	return scanBook(row)
}

// GetBookByWork returns the book linked to the given work identifier,
// or apperr.ErrNotFound. The work identifier is the catalog dedup key.
func (db *DB) GetBookByWork(ctx context.Context, workOLID string) (*models.Book, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books WHERE work_olid = ? AND work_olid != ''
	`, workOLID)
	return scanBook(row)
}

// ListBooks returns books newest first, optionally filtered by status.
func (db *DB) ListBooks(ctx context.Context, status models.Status) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// UpdateBook applies a partial update. Nil pointer fields are untouched;
// date columns follow their write mode, including SQL COALESCE for the
// coalescing case. updated_at is bumped on every call. Returns
// apperr.ErrNotFound when no row matches.
func (db *DB) UpdateBook(ctx context.Context, id uuid.UUID, patch models.BookPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.RatingTag != nil {
		sets = append(sets, "rating_tag = ?")
		args = append(args, *patch.RatingTag)
	}
	sets, args = appendDateWrite(sets, args, "started_date", patch.Started)
	sets, args = appendDateWrite(sets, args, "completed_date", patch.Completed)

	args = append(args, id.String())
	res, err := db.conn.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of books on each shelf.
func (db *DB) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM books GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("store: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func appendDateWrite(sets []string, args []any, column string, w models.DateWrite) ([]string, []any) {
	switch w.Mode {
	case models.DateSet:
		sets = append(sets, column+" = ?")
		args = append(args, dateToSQL(w.Value))
	case models.DateCoalesce:
		sets = append(sets, column+" = COALESCE(?, "+column+")")
		args = append(args, dateToSQL(w.Value))
	}
	return sets, args
}

func dateToSQL(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func dateFromSQL(raw sql.NullString) (*models.Date, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw.String)
	if err != nil {
		return nil, fmt.Errorf("store: corrupt date column: %w", err)
	}
	return &d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var (
		b             models.Book
		id, status    string
		started, done sql.NullString
	)
	err := row.Scan(&id, &b.WorkOLID, &b.EditionOLID, &b.Title, &b.Author, &status,
		&started, &done, &b.RatingTag, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: scan book: %w", err)
	}
	b.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("store: corrupt book id: %w", err)
	}
	b.Status = models.Status(status)
	if b.StartedDate, err = dateFromSQL(started); err != nil {
		return nil, err
	}
	if b.CompletedDate, err = dateFromSQL(done); err != nil {
		return nil, err
	}
	return &b, nil
}
