package openlibrary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, CoversURL: "https://covers.example.org", RPS: 1000, Burst: 1000}, testLogger())
}

func TestSearch_NormalizesDocs(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.json":
			if got := r.URL.Query().Get("q"); got != "le guin" {
				t.Errorf("q = %q", got)
			}
			io.WriteString(w, `{"docs": [
				{"key": "/works/OL1W", "title": "The Dispossessed",
				 "author_name": ["Ursula K. Le Guin"], "edition_key": ["OL1M", "OL2M"]},
				{"key": "/works/OL2W", "title": "Untitled Cover Key",
				 "cover_edition_key": "OL9M"},
				{"key": "/works/OL3W"},
				{"title": "No key"}
			]}`)
		case "/works/OL1W/ratings.json":
			io.WriteString(w, `{"summary": {"average": 4.3, "count": 120}}`)
		case "/works/OL2W/ratings.json":
			io.WriteString(w, `{"summary": null}`)
		default:
			http.NotFound(w, r)
		}
	})

	docs, err := c.Search(context.Background(), "le guin", 1, 8)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2 (untitled and keyless docs skipped)", len(docs))
	}

	first := docs[0]
	if first.WorkOLID != "OL1W" || first.EditionOLID != "OL1M" {
		t.Errorf("ids = %s / %s", first.WorkOLID, first.EditionOLID)
	}
	if first.Author != "Ursula K. Le Guin" {
		t.Errorf("author = %q", first.Author)
	}
	if first.Covers == nil || first.Covers.Medium != "https://covers.example.org/b/OLID/OL1M-M.jpg" {
		t.Errorf("covers = %+v", first.Covers)
	}
	if first.Rating == nil || first.Rating.Count != 120 {
		t.Errorf("rating = %+v", first.Rating)
	}

	second := docs[1]
	if second.EditionOLID != "OL9M" {
		t.Errorf("cover edition fallback: %q", second.EditionOLID)
	}
	if second.Author != "Unknown author" {
		t.Errorf("author fallback: %q", second.Author)
	}
	if second.Rating != nil {
		t.Errorf("rating should be absent, got %+v", second.Rating)
	}
}

func TestSearch_RatingFailureDegrades(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search.json" {
			io.WriteString(w, `{"docs": [{"key": "/works/OL1W", "title": "T"}]}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	docs, err := c.Search(context.Background(), "anything", 1, 8)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 || docs[0].Rating != nil {
		t.Errorf("docs = %+v", docs)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty query")
	})
	docs, err := c.Search(context.Background(), "", 1, 8)
	if err != nil || docs != nil {
		t.Fatalf("docs=%v err=%v", docs, err)
	}
}

func TestWorkDescription_StringAndObjectShapes(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/OL1W.json":
			io.WriteString(w, `{"description": "plain text"}`)
		case "/works/OL2W.json":
			io.WriteString(w, `{"description": {"type": "/type/text", "value": "wrapped text"}}`)
		case "/works/OL3W.json":
			io.WriteString(w, `{}`)
		}
	})

	ctx := context.Background()
	if got, _ := c.WorkDescription(ctx, "OL1W"); got != "plain text" {
		t.Errorf("string shape = %q", got)
	}
	if got, _ := c.WorkDescription(ctx, "OL2W"); got != "wrapped text" {
		t.Errorf("object shape = %q", got)
	}
	if got, _ := c.WorkDescription(ctx, "OL3W"); got != "" {
		t.Errorf("absent = %q", got)
	}
}

func TestArchiveAvailability(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("bibkeys") {
		case "OLID:OL1M":
			io.WriteString(w, `{"OLID:OL1M": {"preview": "borrow", "preview_url": "https://archive.org/details/x"}}`)
		case "OLID:OL2M":
			io.WriteString(w, `{"OLID:OL2M": {"preview": "noview"}}`)
		default:
			io.WriteString(w, `{}`)
		}
	})

	ctx := context.Background()
	got, err := c.ArchiveAvailability(ctx, "OL1M")
	if err != nil {
		t.Fatalf("ArchiveAvailability: %v", err)
	}
	if got == nil || got.Preview != "borrow" || got.URL != "https://archive.org/details/x" {
		t.Errorf("preview = %+v", got)
	}

	if got, _ := c.ArchiveAvailability(ctx, "OL2M"); got != nil {
		t.Errorf("noview should be nil, got %+v", got)
	}
	if got, _ := c.ArchiveAvailability(ctx, "OL3M"); got != nil {
		t.Errorf("missing entry should be nil, got %+v", got)
	}
}

func TestStatusMapping(t *testing.T) {
	status := http.StatusNotFound
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	ctx := context.Background()

	if _, err := c.WorkRating(ctx, "OL1W"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 err = %v", err)
	}
	status = http.StatusTooManyRequests
	if _, err := c.WorkRating(ctx, "OL1W"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("429 err = %v", err)
	}
	status = http.StatusBadGateway
	if _, err := c.WorkRating(ctx, "OL1W"); !errors.Is(err, ErrServer) {
		t.Errorf("502 err = %v", err)
	}
}

func TestCoverURLs(t *testing.T) {
	c := New(Config{CoversURL: "https://covers.example.org"}, testLogger())
	urls := c.CoverURLs("OL5M")
	if urls.Small != "https://covers.example.org/b/OLID/OL5M-S.jpg" ||
		urls.Large != "https://covers.example.org/b/OLID/OL5M-L.jpg" {
		t.Errorf("urls = %+v", urls)
	}
	if c.CoverURLs("") != nil {
		t.Error("empty edition should yield nil")
	}
}
