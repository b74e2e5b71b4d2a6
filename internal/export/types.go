// Package export renders archived comparison snapshots as redline reports
// in PDF and DOCX formats.
package export

import "errors"

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	BaselineHash string
	RevisedHash  string
	Format       Format
	Title        string // optional report title override
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrSnapshotUnavailable indicates the comparison snapshot could not be loaded.
	ErrSnapshotUnavailable = errors.New("export snapshot unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
