// Package search indexes archived change records and answers full-text
// queries over them, via Meilisearch when available with a PostgreSQL
// full-text fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID            string `json:"id"`
	BaselineHash  string `json:"baselineHash"`
	RevisedHash   string `json:"revisedHash"`
	SectionNumber string `json:"sectionNumber"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	RedlineType   string `json:"redlineType"`
	Snippet       string `json:"snippet"`
}

// Query describes a search request over archived changes.
type Query struct {
	Text           string
	FilterCategory string // empty = all categories
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// ChangeRecord is the data indexed per archived change.
type ChangeRecord struct {
	ID            string `json:"id"`
	BaselineHash  string `json:"baselineHash"`
	RevisedHash   string `json:"revisedHash"`
	SectionNumber string `json:"sectionNumber"`
	SectionTitle  string `json:"sectionTitle"`
	Category      string `json:"category"`
	Justification string `json:"justification"`
	RedlineType   string `json:"redlineType"`
	BaselineText  string `json:"baselineText"`
	RevisedText   string `json:"revisedText"`
}

// Searcher can execute a full-text search over changes.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push change records into a search index.
type Indexer interface {
	IndexChanges(records []ChangeRecord) error
	DeleteChanges(ids []string) error
}
