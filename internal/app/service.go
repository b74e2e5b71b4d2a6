// Package app wires the comparison pipeline, archive, versioning, search,
// and export behind the HTTP surface. Optional collaborators (archive,
// search, export, blob storage) may be nil; operations that need a missing
// one fail with a domain error instead of panicking.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"redline/api/internal/blob"
	"redline/api/internal/cache"
	"redline/api/internal/compare"
	"redline/api/internal/config"
	"redline/api/internal/docrepo"
	"redline/api/internal/export"
	"redline/api/internal/extract"
	"redline/api/internal/narrative"
	"redline/api/internal/search"
	"redline/api/internal/store"
)

// Deps holds the service collaborators. Cache is required; the rest are
// optional and degrade the corresponding endpoints when nil.
type Deps struct {
	Cache    *cache.Cache
	Archive  *store.PostgresStore
	Repo     *docrepo.Service
	Search   *search.Service
	Export   *export.Service
	Blobs    *blob.Store
	Narrator narrative.Generator
}

type Service struct {
	cfg      config.Config
	cache    *cache.Cache
	archive  *store.PostgresStore
	repo     *docrepo.Service
	search   *search.Service
	export   *export.Service
	blobs    *blob.Store
	narrator narrative.Generator
}

func New(cfg config.Config, deps Deps) *Service {
	narrator := deps.Narrator
	if narrator == nil {
		narrator = narrative.NewTemplateGenerator()
	}
	return &Service{
		cfg:      cfg,
		cache:    deps.Cache,
		archive:  deps.Archive,
		repo:     deps.Repo,
		search:   deps.Search,
		export:   deps.Export,
		blobs:    deps.Blobs,
		narrator: narrator,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	return s.archive.Ping(ctx)
}

// Compare runs the full pipeline over two plain-text documents, serving
// from the snapshot cache when the exact pair was compared before.
func (s *Service) Compare(ctx context.Context, baselineText, revisedText, agreementID string) (*compare.Snapshot, error) {
	if strings.TrimSpace(baselineText) == "" && strings.TrimSpace(revisedText) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "both documents are empty", nil)
	}

	baseline := extract.Sections(baselineText)
	revised := extract.Sections(revisedText)

	snap, err := s.cache.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		return nil, fmt.Errorf("compare documents: %w", err)
	}

	s.archiveSnapshot(ctx, snap, agreementID)
	return snap, nil
}

// archiveSnapshot persists the snapshot durably and feeds the search index.
// The archive write is idempotent per hash pair, so a cache hit re-archiving
// an existing snapshot is a no-op. Archive failures are logged, not fatal:
// the caller already has the snapshot.
func (s *Service) archiveSnapshot(ctx context.Context, snap *compare.Snapshot, agreementID string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveSnapshot(ctx, snap, agreementID); err != nil {
		log.Printf("app: archive snapshot %s/%s: %v", snap.BaselineHash[:8], snap.RevisedHash[:8], err)
		return
	}
	if s.search != nil {
		s.search.IndexChanges(searchRecords(snap))
	}
}

func searchRecords(snap *compare.Snapshot) []search.ChangeRecord {
	records := make([]search.ChangeRecord, 0, len(snap.Changes))
	for i, rec := range snap.Changes {
		records = append(records, search.ChangeRecord{
			ID:            changeID(snap.BaselineHash, snap.RevisedHash, i),
			BaselineHash:  snap.BaselineHash,
			RevisedHash:   snap.RevisedHash,
			SectionNumber: rec.SectionNumber,
			SectionTitle:  rec.SectionTitle,
			Category:      string(rec.Category),
			Justification: rec.Justification,
			RedlineType:   string(rec.RedlineType),
			BaselineText:  rec.BaselineText,
			RevisedText:   rec.RevisedText,
		})
	}
	return records
}

// changeID matches the archive row ID so search hits resolve to rows.
func changeID(baselineHash, revisedHash string, position int) string {
	return fmt.Sprintf("%s:%s:%d", baselineHash[:12], revisedHash[:12], position)
}

// GetSnapshot loads a snapshot by hash pair from the cache, falling back
// to the durable archive.
func (s *Service) GetSnapshot(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, error) {
	snap, ok, err := s.cache.Lookup(ctx, baselineHash, revisedHash)
	if err != nil {
		log.Printf("app: cache lookup %s/%s: %v", baselineHash[:8], revisedHash[:8], err)
	}
	if ok {
		return snap, nil
	}

	if s.archive != nil {
		snap, ok, err = s.archive.GetSnapshot(ctx, baselineHash, revisedHash)
		if err != nil {
			return nil, fmt.Errorf("load archived snapshot: %w", err)
		}
		if ok {
			return snap, nil
		}
	}
	return nil, domainError(http.StatusNotFound, "NOT_FOUND", "no comparison for this document pair", nil)
}

// ListComparisons returns recent archived comparisons, newest first.
func (s *Service) ListComparisons(ctx context.Context, limit int) ([]store.Comparison, error) {
	if s.archive == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "comparison archive not configured", nil)
	}
	items, err := s.archive.ListComparisons(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	if items == nil {
		items = []store.Comparison{}
	}
	return items, nil
}

// SaveAgreementVersion commits a new text version of an agreement.
func (s *Service) SaveAgreementVersion(agreementID, text, author, message string) (docrepo.VersionInfo, error) {
	if s.repo == nil {
		return docrepo.VersionInfo{}, domainError(http.StatusServiceUnavailable, "VERSIONING_UNAVAILABLE", "agreement versioning not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return docrepo.VersionInfo{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil)
	}
	info, err := s.repo.SaveVersion(agreementID, text, author, message)
	if err != nil {
		return docrepo.VersionInfo{}, fmt.Errorf("save agreement version: %w", err)
	}
	return info, nil
}

// ListAgreementVersions lists stored versions newest first.
func (s *Service) ListAgreementVersions(agreementID string, limit int) ([]docrepo.VersionInfo, error) {
	if s.repo == nil {
		return nil, domainError(http.StatusServiceUnavailable, "VERSIONING_UNAVAILABLE", "agreement versioning not configured", nil)
	}
	history, err := s.repo.History(agreementID, limit)
	if errors.Is(err, docrepo.ErrAgreementNotFound) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "agreement not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("list agreement versions: %w", err)
	}
	return history, nil
}

// GetAgreementVersion reads the agreement text at a revision.
func (s *Service) GetAgreementVersion(agreementID, revision string) (string, error) {
	if s.repo == nil {
		return "", domainError(http.StatusServiceUnavailable, "VERSIONING_UNAVAILABLE", "agreement versioning not configured", nil)
	}
	text, err := s.repo.GetVersion(agreementID, revision)
	if errors.Is(err, docrepo.ErrAgreementNotFound) {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", "agreement not found", nil)
	}
	if err != nil {
		return "", fmt.Errorf("get agreement version: %w", err)
	}
	return text, nil
}

// CompareVersions compares two stored revisions of the same agreement.
func (s *Service) CompareVersions(ctx context.Context, agreementID, baselineRev, revisedRev string) (*compare.Snapshot, error) {
	baselineText, err := s.GetAgreementVersion(agreementID, baselineRev)
	if err != nil {
		return nil, err
	}
	revisedText, err := s.GetAgreementVersion(agreementID, revisedRev)
	if err != nil {
		return nil, err
	}
	return s.Compare(ctx, baselineText, revisedText, agreementID)
}

// Export renders an archived snapshot as a downloadable report and, when
// object storage is configured, keeps a copy of the artifact.
func (s *Service) Export(ctx context.Context, req export.Request) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "export not configured", nil)
	}
	result, err := s.export.Export(ctx, req)
	if errors.Is(err, export.ErrSnapshotUnavailable) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "no comparison for this document pair", nil)
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_DEPENDENCY_MISSING", "export renderer not installed", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("export report: %w", err)
	}

	if s.blobs != nil {
		name := blob.ReportName(req.BaselineHash, req.RevisedHash, string(req.Format), time.Now().UTC())
		if err := s.blobs.PutReport(ctx, name, result.Data, result.MimeType); err != nil {
			log.Printf("app: archive report %s: %v", name, err)
		}
	}
	return result, nil
}

// Search queries archived change records.
func (s *Service) Search(q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search not configured", nil)
	}
	return s.search.Search(q), nil
}

// ExplainChange produces reviewer prose for one change in a snapshot.
func (s *Service) ExplainChange(ctx context.Context, baselineHash, revisedHash string, position int) (string, error) {
	snap, err := s.GetSnapshot(ctx, baselineHash, revisedHash)
	if err != nil {
		return "", err
	}
	if position < 0 || position >= len(snap.Changes) {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", "change position out of range", nil)
	}
	text, err := s.narrator.Explain(ctx, narrative.PayloadFromChange(snap.Changes[position]))
	if err != nil {
		return "", fmt.Errorf("explain change: %w", err)
	}
	return text, nil
}
