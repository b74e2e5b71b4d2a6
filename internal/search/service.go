package search

import (
	"context"
	"fmt"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexChanges pushes change records to Meilisearch (fire-and-forget).
// Postgres rows are the source of truth, so a lost index write only costs
// freshness until the next reindex.
func (s *Service) IndexChanges(records []ChangeRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexChanges(records); err != nil {
			log.Printf("search: index %d changes: %v", len(records), err)
		}
	}()
}

// DeleteChanges removes change records from the index (fire-and-forget).
func (s *Service) DeleteChanges(ids []string) {
	if s.meili == nil || !s.meili.Healthy() || len(ids) == 0 {
		return
	}
	go func() {
		if err := s.meili.DeleteChanges(ids); err != nil {
			log.Printf("search: delete changes: %v", err)
		}
	}()
}

// ReindexAllFromPG reads every archived change row from PostgreSQL and
// pushes it to Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	records, err := s.loadAllChanges(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := s.meili.IndexChanges(records); err != nil {
		log.Printf("search: reindex %d changes: %v", len(records), err)
	}
}

func (s *Service) loadAllChanges(ctx context.Context) ([]ChangeRecord, error) {
	rows, err := s.pgfts.db.QueryContext(ctx, `
		SELECT id, baseline_hash, revised_hash, section_number, section_title,
			category, justification, redline_type, baseline_text, revised_text
		FROM comparison_changes
	`)
	if err != nil {
		return nil, fmt.Errorf("load changes: %w", err)
	}
	defer rows.Close()

	records := make([]ChangeRecord, 0)
	for rows.Next() {
		var r ChangeRecord
		if err := rows.Scan(&r.ID, &r.BaselineHash, &r.RevisedHash, &r.SectionNumber, &r.SectionTitle,
			&r.Category, &r.Justification, &r.RedlineType, &r.BaselineText, &r.RevisedText); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
