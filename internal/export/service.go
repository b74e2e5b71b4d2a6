package export

import (
	"context"
	"fmt"

	"redline/api/internal/compare"
)

// SnapshotSource loads archived comparison snapshots.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error)
}

// Service renders comparison snapshots into downloadable reports.
type Service struct {
	source SnapshotSource
}

// NewService creates a new export service
func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

// Export generates a redline report in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	snap, found, err := s.source.GetSnapshot(ctx, req.BaselineHash, req.RevisedHash)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		return nil, ErrSnapshotUnavailable
	}

	title := req.Title
	if title == "" {
		title = "Agreement Comparison Report"
	}

	html, err := RenderReportHTML(buildTemplateData(title, snap))
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, title)
	case FormatDOCX:
		return exportDOCX(html, title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func buildTemplateData(title string, snap *compare.Snapshot) TemplateData {
	data := TemplateData{
		Title:        title,
		BaselineHash: snap.BaselineHash,
		RevisedHash:  snap.RevisedHash,
		CreatedAt:    snap.CreatedAt,
		Changes:      make([]TemplateChange, 0, len(snap.Changes)),
	}

	for _, cat := range compare.Categories {
		if n := snap.Summary[cat]; n > 0 {
			data.Summary = append(data.Summary, SummaryRow{Category: string(cat), Count: n})
		}
	}

	for _, rec := range snap.Changes {
		data.Changes = append(data.Changes, TemplateChange{
			SectionNumber: rec.SectionNumber,
			SectionTitle:  rec.SectionTitle,
			Category:      string(rec.Category),
			Justification: rec.Justification,
			RedlineType:   string(rec.RedlineType),
			RedlineHTML:   segmentsHTML(rec.Segments),
		})
	}
	return data
}
