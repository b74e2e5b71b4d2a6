package store

import "time"

// Comparison is one archived snapshot row. The full snapshot travels as a
// JSON payload; change rows are denormalized alongside it for search.
type Comparison struct {
	BaselineHash string
	RevisedHash  string
	AgreementID  string
	ChangeCount  int
	CreatedAt    time.Time
}

// Change is one denormalized change record, used by full-text search and
// reporting queries.
type Change struct {
	ID            string
	BaselineHash  string
	RevisedHash   string
	SectionNumber string
	SectionTitle  string
	Category      string
	Justification string
	RedlineType   string
	BaselineText  string
	RevisedText   string
}
