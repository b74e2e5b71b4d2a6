package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxChanges = "redline_changes"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the change index.
// The caller should proceed without it if the instance stays unhealthy;
// the background monitor reconfigures on recovery.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxChanges,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxChanges, err)
	}

	index := m.client.Index(idxChanges)
	filterable := []interface{}{"category", "redlineType", "baselineHash", "revisedHash"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxChanges, err)
	}
	searchable := []string{"sectionTitle", "justification", "baselineText", "revisedText"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxChanges, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the change index.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit:                 limit,
		Offset:                int64(q.Offset),
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}
	if q.FilterCategory != "" {
		sr.Filter = fmt.Sprintf("category = %q", q.FilterCategory)
	}

	resp, err := m.client.Index(idxChanges).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

// IndexChanges pushes change records into the index.
func (m *Meili) IndexChanges(records []ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := m.client.Index(idxChanges).AddDocuments(records, nil); err != nil {
		return fmt.Errorf("index changes: %w", err)
	}
	return nil
}

// DeleteChanges removes change records by ID.
func (m *Meili) DeleteChanges(ids []string) error {
	for _, id := range ids {
		if _, err := m.client.Index(idxChanges).DeleteDocument(id, nil); err != nil {
			return fmt.Errorf("delete change %s: %w", id, err)
		}
	}
	return nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{
		ID:            decodeString(hit, "id"),
		BaselineHash:  decodeString(hit, "baselineHash"),
		RevisedHash:   decodeString(hit, "revisedHash"),
		SectionNumber: decodeString(hit, "sectionNumber"),
		Category:      decodeString(hit, "category"),
		RedlineType:   decodeString(hit, "redlineType"),
	}
	r.Title = firstNonBlank(decodeFormattedString(hit, "sectionTitle"), decodeString(hit, "sectionTitle"))
	r.Snippet = firstNonBlank(decodeFormattedString(hit, "justification"), decodeString(hit, "justification"))
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
