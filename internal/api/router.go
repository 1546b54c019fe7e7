package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmercer/shelfmark/internal/bookservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *bookservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Library.
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.AddBook)
	r.Get("/books/{id}", h.GetBook)

	// Status transitions.
	r.Post("/books/{id}/start-reading", h.StartReading)
	r.Post("/books/{id}/mark-completed", h.MarkCompleted)
	r.Post("/books/{id}/drop", h.Drop)
	r.Post("/books/{id}/move-to-wishlist", h.MoveToWishlist)

	// Date edits.
	r.Put("/books/{id}/started-date", h.EditStartedDate)
	r.Put("/books/{id}/completed-date", h.EditCompletedDate)

	// Reviews.
	r.Post("/books/{id}/reviews", h.AddReview)

	// Catalog search passthrough.
	r.Get("/search", h.SearchCatalog)

	// Shelf summary.
	r.Get("/shelf", h.ShelfSummary)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
