// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Shelfmark tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jmercer/shelfmark/internal/bookservice"
	"github.com/jmercer/shelfmark/internal/models"
)

// Server wraps the MCP server with Shelfmark tools.
type Server struct {
	mcp *server.MCPServer
	svc *bookservice.Service
}

// New creates a new MCP server with all Shelfmark tools registered.
func New(svc *bookservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Shelfmark",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List books on the shelf, optionally filtered by status."),
		mcp.WithString("status", mcp.Description("Optional status filter: wishlist, reading, completed or dropped")),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("get_book",
		mcp.WithDescription("Get a book with its reviews and catalog metadata."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Book id (UUID)")),
	), s.getBook)

	s.mcp.AddTool(mcp.NewTool("add_book",
		mcp.WithDescription("Add a book to the wishlist. Adding a book linked to an "+
			"Open Library work that is already on the shelf returns the existing entry."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Author name")),
		mcp.WithString("work_olid", mcp.Description("Open Library work id (e.g. OL45804W)")),
		mcp.WithString("edition_olid", mcp.Description("Open Library edition id (e.g. OL7353617M)")),
	), s.addBook)

	s.mcp.AddTool(mcp.NewTool("update_status",
		mcp.WithDescription("Move a book to a new status. Transitions follow the lifecycle "+
			"contract; read it first via the get_lifecycle_contract tool or the "+
			"shelfmark://lifecycle resource. Moving to completed requires rating_tag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Book id (UUID)")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Target status: wishlist, reading, completed or dropped")),
		mcp.WithString("rating_tag", mcp.Description("Rating tag, required when status is completed")),
		mcp.WithString("date", mcp.Description("Optional ISO date (2006-01-02): started date for reading, completed date for completed")),
	), s.updateStatus)

	s.mcp.AddTool(mcp.NewTool("add_review",
		mcp.WithDescription("Attach a review to a book. The book must not be on the wishlist."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Book id (UUID)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Review text")),
	), s.addReview)

	s.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Search the Open Library catalog for books to add."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCatalog)

	s.mcp.AddTool(mcp.NewTool("get_lifecycle_contract",
		mcp.WithDescription("Returns the book status lifecycle contract. "+
			"Call this before changing statuses to learn the allowed transitions."),
	), s.getLifecycleContract)

	// Resource: lifecycle contract.
	s.mcp.AddResource(
		mcp.NewResource("shelfmark://lifecycle", "Status Lifecycle Contract",
			mcp.WithResourceDescription("Book status lifecycle and the rules governing transitions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLifecycleResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func requireBookID(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid book id: %s", raw)
	}
	return id, nil
}

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status models.Status
	if raw, err := req.RequireString("status"); err == nil && raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status = parsed
	}

	books, err := s.svc.ListBooks(ctx, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(books, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireBookID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetBook(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, err := req.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	workOLID, _ := req.RequireString("work_olid")
	editionOLID, _ := req.RequireString("edition_olid")

	book, created, err := s.svc.EnsureBook(ctx, bookservice.AddBookParams{
		WorkOLID:    workOLID,
		EditionOLID: editionOLID,
		Title:       title,
		Author:      author,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "already on shelf"
	if created {
		verb = "added"
	}
	out, _ := json.MarshalIndent(book, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("%s:\n%s", verb, out)), nil
}

func (s *Server) updateStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireBookID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := models.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date := models.KeepDate()
	if rawDate, err := req.RequireString("date"); err == nil && rawDate != "" {
		d, err := models.ParseDate(rawDate)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		date = models.SetDate(d)
	}

	var book *models.Book
	switch target {
	case models.StatusReading:
		book, err = s.svc.StartReading(ctx, id, date)
	case models.StatusCompleted:
		ratingTag, _ := req.RequireString("rating_tag")
		book, err = s.svc.MarkCompleted(ctx, id, ratingTag, date)
	case models.StatusDropped:
		book, err = s.svc.Drop(ctx, id)
	case models.StatusWishlist:
		book, err = s.svc.MoveToWishlist(ctx, id)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(book, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireBookID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	review, err := s.svc.AddReview(ctx, id, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(review, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := s.svc.SearchCatalog(ctx, query, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLifecycleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LifecycleContract), nil
}

func (s *Server) readLifecycleResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "shelfmark://lifecycle",
			MIMEType: "text/markdown",
			Text:     LifecycleContract,
		},
	}, nil
}
