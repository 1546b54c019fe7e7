package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jmercer/shelfmark/internal/bookservice"
	"github.com/jmercer/shelfmark/internal/models"
	"github.com/jmercer/shelfmark/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc := bookservice.NewService(testutil.TestStore(t), nil, nil, testutil.DiscardLogger())
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "get_book":
		result, err = srv.getBook(ctx, req)
	case "add_book":
		result, err = srv.addBook(ctx, req)
	case "update_status":
		result, err = srv.updateStatus(ctx, req)
	case "add_review":
		result, err = srv.addReview(ctx, req)
	case "search_catalog":
		result, err = srv.searchCatalog(ctx, req)
	case "get_lifecycle_contract":
		result, err = srv.getLifecycleContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func addTestBook(t *testing.T, srv *Server) models.Book {
	t.Helper()
	r := callTool(t, srv, "add_book", map[string]interface{}{
		"title":     "Piranesi",
		"author":    "Susanna Clarke",
		"work_olid": "OL20930260W",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "added:") {
		t.Fatalf("add_book result = %q", text)
	}
	var b models.Book
	if err := json.Unmarshal([]byte(strings.TrimPrefix(text, "added:")), &b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAddBookAndDedup(t *testing.T) {
	srv := testServer(t)
	addTestBook(t, srv)

	r := callTool(t, srv, "add_book", map[string]interface{}{
		"title":     "Piranesi again",
		"author":    "Susanna Clarke",
		"work_olid": "OL20930260W",
	})
	if !strings.HasPrefix(resultText(r), "already on shelf:") {
		t.Errorf("dedup result = %q", resultText(r))
	}
}

func TestUpdateStatusFlow(t *testing.T) {
	srv := testServer(t)
	b := addTestBook(t, srv)

	r := callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "reading", "date": "2024-01-10",
	})
	if r.IsError {
		t.Fatalf("start reading: %s", resultText(r))
	}

	// Completing without a rating is refused.
	r = callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "completed",
	})
	if !r.IsError {
		t.Fatal("expected missing rating error")
	}

	r = callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "completed", "rating_tag": "loved-it", "date": "2024-02-01",
	})
	if r.IsError {
		t.Fatalf("complete: %s", resultText(r))
	}
	var completed models.Book
	if err := json.Unmarshal([]byte(resultText(r)), &completed); err != nil {
		t.Fatal(err)
	}
	if completed.Status != models.StatusCompleted || completed.RatingTag != "loved-it" {
		t.Errorf("completed book = %+v", completed)
	}

	// Rated books cannot be dropped.
	r = callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "dropped",
	})
	if !r.IsError {
		t.Fatal("expected drop to be refused")
	}
}

func TestUpdateStatus_BadInput(t *testing.T) {
	srv := testServer(t)
	b := addTestBook(t, srv)

	r := callTool(t, srv, "update_status", map[string]interface{}{
		"id": "not-a-uuid", "status": "reading",
	})
	if !r.IsError {
		t.Error("expected invalid id error")
	}

	r = callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "paused",
	})
	if !r.IsError {
		t.Error("expected unknown status error")
	}
}

func TestAddReview(t *testing.T) {
	srv := testServer(t)
	b := addTestBook(t, srv)

	// Wishlist books cannot be reviewed.
	r := callTool(t, srv, "add_review", map[string]interface{}{
		"id": b.ID.String(), "content": "looks promising",
	})
	if !r.IsError {
		t.Fatal("expected wishlist review to be refused")
	}

	callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "reading",
	})
	r = callTool(t, srv, "add_review", map[string]interface{}{
		"id": b.ID.String(), "content": "the statues are growing on me",
	})
	if r.IsError {
		t.Fatalf("add_review: %s", resultText(r))
	}
	var review models.Review
	if err := json.Unmarshal([]byte(resultText(r)), &review); err != nil {
		t.Fatal(err)
	}
	if review.StatusAtTime != models.StatusReading {
		t.Errorf("status at time = %s", review.StatusAtTime)
	}
}

func TestListBooksFilter(t *testing.T) {
	srv := testServer(t)
	b := addTestBook(t, srv)
	callTool(t, srv, "update_status", map[string]interface{}{
		"id": b.ID.String(), "status": "reading",
	})

	r := callTool(t, srv, "list_books", map[string]interface{}{"status": "reading"})
	var books []models.Book
	if err := json.Unmarshal([]byte(resultText(r)), &books); err != nil {
		t.Fatal(err)
	}
	if len(books) != 1 || books[0].ID != b.ID {
		t.Errorf("filtered books = %+v", books)
	}

	r = callTool(t, srv, "list_books", map[string]interface{}{"status": "bogus"})
	if !r.IsError {
		t.Error("expected unknown status error")
	}
}

func TestGetBook(t *testing.T) {
	srv := testServer(t)
	b := addTestBook(t, srv)

	r := callTool(t, srv, "get_book", map[string]interface{}{"id": b.ID.String()})
	if r.IsError {
		t.Fatalf("get_book: %s", resultText(r))
	}
	var detail bookservice.BookDetail
	if err := json.Unmarshal([]byte(resultText(r)), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Book.Title != "Piranesi" {
		t.Errorf("title = %q", detail.Book.Title)
	}
}

func TestLifecycleContractTool(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_lifecycle_contract", nil))
	if !strings.Contains(text, "wishlist  -> reading") {
		t.Errorf("contract missing transition table: %q", text)
	}
}
