package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Snippet    string `json:"snippet"`
	GroupID    string `json:"groupId"`
	Visibility string `json:"visibility,omitempty"`
}

// Query describes a search request. PublicOnly restricts results to pads
// whose own visibility is public, for unauthenticated callers.
type Query struct {
	Text       string
	Limit      int
	Offset     int
	PublicOnly bool
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PadRecord is the data we index for a pad.
type PadRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Text       string `json:"text"`
	GroupID    string `json:"groupId"`
	Visibility string `json:"visibility"`
}
