package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"redline/api/internal/compare"
)

// PostgresStore is the durable snapshot archive. Unlike the front cache it
// keeps snapshots across restarts and feeds full-text search; the write
// path is idempotent per (baseline_hash, revised_hash) so a racing second
// writer never diverges from the first.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveSnapshot archives a snapshot and its denormalized change rows in one
// transaction. An existing row for the same hash pair wins: the snapshot
// under a key is immutable and never merged.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *compare.Snapshot, agreementID string) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO comparisons (baseline_hash, revised_hash, agreement_id, change_count, payload, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (baseline_hash, revised_hash) DO NOTHING
	`, snap.BaselineHash, snap.RevisedHash, agreementID, len(snap.Changes), payload, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already archived by an earlier computation; keep it.
		return nil
	}

	for i, rec := range snap.Changes {
		changeID := fmt.Sprintf("%s:%s:%d", snap.BaselineHash[:12], snap.RevisedHash[:12], i)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comparison_changes
				(id, baseline_hash, revised_hash, position, section_number, section_title,
				 category, justification, redline_type, baseline_text, revised_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING
		`, changeID, snap.BaselineHash, snap.RevisedHash, i, rec.SectionNumber, rec.SectionTitle,
			string(rec.Category), rec.Justification, string(rec.RedlineType), rec.BaselineText, rec.RevisedText); err != nil {
			return fmt.Errorf("insert change %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// GetSnapshot loads an archived snapshot by hash pair.
func (s *PostgresStore) GetSnapshot(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM comparisons WHERE baseline_hash = $1 AND revised_hash = $2
	`, baselineHash, revisedHash).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load comparison: %w", err)
	}

	var snap compare.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot payload: %w", err)
	}
	return &snap, true, nil
}

// ListComparisons returns recent archive entries, newest first.
func (s *PostgresStore) ListComparisons(ctx context.Context, limit int) ([]Comparison, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT baseline_hash, revised_hash, COALESCE(agreement_id, ''), change_count, created_at
		FROM comparisons
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	defer rows.Close()

	var items []Comparison
	for rows.Next() {
		var c Comparison
		if err := rows.Scan(&c.BaselineHash, &c.RevisedHash, &c.AgreementID, &c.ChangeCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// LoadAllChanges returns every archived change row for search reindexing.
func (s *PostgresStore) LoadAllChanges(ctx context.Context) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, baseline_hash, revised_hash, section_number, section_title,
		       category, justification, redline_type, baseline_text, revised_text
		FROM comparison_changes
	`)
	if err != nil {
		return nil, fmt.Errorf("load changes: %w", err)
	}
	defer rows.Close()

	var items []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.BaselineHash, &c.RevisedHash, &c.SectionNumber, &c.SectionTitle,
			&c.Category, &c.Justification, &c.RedlineType, &c.BaselineText, &c.RevisedText); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
