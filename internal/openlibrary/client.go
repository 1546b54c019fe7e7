// Package openlibrary is a rate-limited client for the Open Library
// catalog API. Callers treat every failure as "metadata unavailable";
// nothing here feeds the domain error taxonomy.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://openlibrary.org"
	defaultCoversURL = "https://covers.openlibrary.org"

	// Courtesy limit: Open Library asks bulk consumers to stay slow.
	defaultRPS   = 3.0
	defaultBurst = 5

	defaultTimeout = 30 * time.Second

	defaultSearchLimit = 8
	maxSearchLimit     = 50

	// Rating fan-out during search runs at most this many lookups at once.
	ratingConcurrency = 4
)

var (
	ErrNotFound    = errors.New("openlibrary: not found")
	ErrRateLimited = errors.New("openlibrary: rate limited upstream")
	ErrServer      = errors.New("openlibrary: server error")
)

// Config tunes the client. Zero values fall back to defaults.
type Config struct {
	BaseURL   string
	CoversURL string
	RPS       float64
	Burst     int
	Timeout   time.Duration
}

// Client is a rate-limited Open Library API client.
type Client struct {
	baseURL   string
	coversURL string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates a new Open Library client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = defaultCoversURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		coversURL: strings.TrimRight(cfg.CoversURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:    logger,
	}
}

// doJSON executes a rate-limited GET and decodes the JSON response into v.
func (c *Client) doJSON(ctx context.Context, path string, query url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelfmark/1.0")

	c.logger.Debug("openlibrary request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Search queries the catalog and returns normalized results with cover
// URLs and, where available, rating summaries. Individual rating lookup
// failures degrade to an absent rating.
func (c *Client) Search(ctx context.Context, q string, page, limit int) ([]Doc, error) {
	if q == "" {
		return nil, nil
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var raw searchResponse
	query := url.Values{
		"q":     {q},
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if err := c.doJSON(ctx, "/search.json", query, &raw); err != nil {
		return nil, err
	}

	var docs []Doc
	for _, d := range raw.Docs {
		if d.Title == "" || d.Key == "" {
			continue
		}
		doc := Doc{
			Title:    d.Title,
			Author:   "Unknown author",
			WorkOLID: strings.TrimPrefix(d.Key, "/works/"),
		}
		if len(d.AuthorName) > 0 {
			doc.Author = d.AuthorName[0]
		}
		// Prefer the first edition key, fall back to the cover edition.
		if len(d.EditionKey) > 0 {
			doc.EditionOLID = d.EditionKey[0]
		} else if d.CoverEditionKey != "" {
			doc.EditionOLID = d.CoverEditionKey
		}
		if doc.EditionOLID != "" {
			doc.Covers = c.CoverURLs(doc.EditionOLID)
		}
		docs = append(docs, doc)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ratingConcurrency)
	for i := range docs {
		g.Go(func() error {
			rating, err := c.WorkRating(gCtx, docs[i].WorkOLID)
			if err != nil {
				c.logger.Debug("rating lookup failed", "work", docs[i].WorkOLID, "error", err)
				return nil
			}
			docs[i].Rating = rating
			return nil
		})
	}
	_ = g.Wait()

	return docs, nil
}

// WorkRating returns the rating summary for a work, or nil when the work
// has none.
func (c *Client) WorkRating(ctx context.Context, workOLID string) (*Rating, error) {
	if workOLID == "" {
		return nil, nil
	}
	var raw ratingsResponse
	if err := c.doJSON(ctx, "/works/"+url.PathEscape(workOLID)+"/ratings.json", nil, &raw); err != nil {
		return nil, err
	}
	if raw.Summary == nil || raw.Summary.Count == 0 {
		return nil, nil
	}
	return &Rating{Average: raw.Summary.Average, Count: raw.Summary.Count}, nil
}

// WorkDescription returns the work's description, or "" when absent.
// Open Library serves the field either as a plain string or as a
// {"type": ..., "value": ...} object.
func (c *Client) WorkDescription(ctx context.Context, workOLID string) (string, error) {
	if workOLID == "" {
		return "", nil
	}
	var raw struct {
		Description json.RawMessage `json:"description"`
	}
	if err := c.doJSON(ctx, "/works/"+url.PathEscape(workOLID)+".json", nil, &raw); err != nil {
		return "", err
	}
	if len(raw.Description) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw.Description, &s); err == nil {
		return s, nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw.Description, &obj); err == nil {
		return obj.Value, nil
	}
	return "", nil
}

// ArchiveAvailability returns Internet Archive preview info for an
// edition, or nil when no preview exists.
func (c *Client) ArchiveAvailability(ctx context.Context, editionOLID string) (*ArchivePreview, error) {
	if editionOLID == "" {
		return nil, nil
	}
	bibkey := "OLID:" + editionOLID
	raw := map[string]viewAPIEntry{}
	query := url.Values{
		"bibkeys": {bibkey},
		"format":  {"json"},
	}
	if err := c.doJSON(ctx, "/api/books", query, &raw); err != nil {
		return nil, err
	}
	entry, ok := raw[bibkey]
	if !ok || entry.Preview == "" || entry.Preview == "noview" {
		return nil, nil
	}
	return &ArchivePreview{Preview: entry.Preview, URL: entry.PreviewURL}, nil
}

// CoverURLs builds the cover image URLs for an edition. No network call.
func (c *Client) CoverURLs(editionOLID string) *CoverURLs {
	if editionOLID == "" {
		return nil
	}
	base := c.coversURL + "/b/OLID/" + editionOLID
	return &CoverURLs{
		Small:  base + "-S.jpg",
		Medium: base + "-M.jpg",
		Large:  base + "-L.jpg",
	}
}
