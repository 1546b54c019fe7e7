package openlibrary

// CoverURLs holds the three cover sizes for an edition.
type CoverURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// Rating is the community rating summary for a work.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ArchivePreview describes Internet Archive availability for an edition.
type ArchivePreview struct {
	Preview string `json:"preview"`
	URL     string `json:"url"`
}

// Doc is one normalized search result.
type Doc struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	WorkOLID    string     `json:"work_olid"`
	EditionOLID string     `json:"edition_olid,omitempty"`
	Covers      *CoverURLs `json:"cover_urls,omitempty"`
	Rating      *Rating    `json:"rating,omitempty"`
}

// Raw upstream shapes.

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	AuthorName      []string `json:"author_name"`
	EditionKey      []string `json:"edition_key"`
	CoverEditionKey string   `json:"cover_edition_key"`
}

type ratingsResponse struct {
	Summary *struct {
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	} `json:"summary"`
}

type viewAPIEntry struct {
	Preview    string `json:"preview"`
	PreviewURL string `json:"preview_url"`
}
