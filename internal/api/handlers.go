package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmercer/shelfmark/internal/apperr"
	"github.com/jmercer/shelfmark/internal/bookservice"
	"github.com/jmercer/shelfmark/internal/models"
	"github.com/jmercer/shelfmark/internal/openlibrary"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *bookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookservice.Service) *Handler {
	return &Handler{svc: svc}
}

// bookID extracts and parses the {id} URL parameter.
func bookID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an infrastructure failure and yields a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidDateRange):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(apperr.ErrInvalidDateRange.Error()))
	case errors.Is(err, apperr.ErrMissingRating):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(apperr.ErrMissingRating.Error()))
	case errors.Is(err, apperr.ErrIllegalTransition):
		writeJSON(w, http.StatusConflict, errorBody(apperr.ErrIllegalTransition.Error()))
	case errors.Is(err, apperr.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody(apperr.ErrDuplicate.Error()))
	case errors.Is(err, apperr.ErrIllegalAction):
		writeJSON(w, http.StatusForbidden, errorBody(apperr.ErrIllegalAction.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListBooks handles GET /books.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown status filter"))
			return
		}
		status = parsed
	}

	books, err := h.svc.ListBooks(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: books, Total: len(books)})
}

// AddBook handles POST /books. Adding a book already linked to the same
// catalog work returns the existing entry with 200 instead of 201.
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	book, created, err := h.svc.EnsureBook(r.Context(), bookservice.AddBookParams{
		WorkOLID:    req.WorkOLID,
		EditionOLID: req.EditionOLID,
		Title:       req.Title,
		Author:      req.Author,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, book)
}

// GetBook handles GET /books/{id}.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	detail, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// StartReading handles POST /books/{id}/start-reading.
func (h *Handler) StartReading(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req StartReadingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	book, err := h.svc.StartReading(r.Context(), id, req.StartedDate.Patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// MarkCompleted handles POST /books/{id}/mark-completed.
func (h *Handler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req MarkCompletedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	book, err := h.svc.MarkCompleted(r.Context(), id, req.RatingTag, req.CompletedDate.Patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Drop handles POST /books/{id}/drop.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	book, err := h.svc.Drop(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// MoveToWishlist handles POST /books/{id}/move-to-wishlist.
func (h *Handler) MoveToWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	book, err := h.svc.MoveToWishlist(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// EditStartedDate handles PUT /books/{id}/started-date.
func (h *Handler) EditStartedDate(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req EditStartedDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	book, err := h.svc.EditStartedDate(r.Context(), id, req.StartedDate.Patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// EditCompletedDate handles PUT /books/{id}/completed-date.
func (h *Handler) EditCompletedDate(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req EditCompletedDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	book, err := h.svc.EditCompletedDate(r.Context(), id, req.CompletedDate.Patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// AddReview handles POST /books/{id}/reviews.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req AddReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	review, err := h.svc.AddReview(r.Context(), id, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// SearchCatalog handles GET /search.
func (h *Handler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := h.svc.SearchCatalog(r.Context(), q, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []openlibrary.Doc{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": docs})
}

// ShelfSummary handles GET /shelf.
func (h *Handler) ShelfSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.ShelfSummary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}
