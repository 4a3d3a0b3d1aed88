package store

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a thread-safe, in-memory implementation of Store. It is
// used by tests and by the "memory" storage backend for local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.FactRecord
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.FactRecord),
	}
}

// FetchActive returns the active records for one entity, oldest first.
func (s *MemoryStore) FetchActive(ctx context.Context, userID string, e entity.Entity) ([]*models.FactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.FactRecord
	for _, r := range s.records {
		if r.UserID == userID && r.Entity == e.String() && r.Status == models.StatusActive {
			records = append(records, s.clone(r))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ValidFrom.Before(records[j].ValidFrom)
	})
	return records, nil
}

// FetchAllActive returns all active fact content grouped by entity.
func (s *MemoryStore) FetchAllActive(ctx context.Context, userID string) (map[entity.Entity][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.FactRecord
	for _, r := range s.records {
		if r.UserID == userID && r.Status == models.StatusActive {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ValidFrom.Before(records[j].ValidFrom)
	})

	grouped := make(map[entity.Entity][]string)
	for _, r := range records {
		e := entity.Entity(r.Entity)
		grouped[e] = append(grouped[e], r.Content)
	}
	return grouped, nil
}

// FetchHistorical returns superseded records grouped by entity, most
// recently invalidated first.
func (s *MemoryStore) FetchHistorical(ctx context.Context, userID string, filter entity.Entity) (map[entity.Entity][]*models.FactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.FactRecord
	for _, r := range s.records {
		if r.UserID != userID || r.Status != models.StatusHistorical {
			continue
		}
		if filter != "" && r.Entity != filter.String() {
			continue
		}
		records = append(records, s.clone(r))
	}
	sort.Slice(records, func(i, j int) bool {
		// ValidUntil is always set on historical records.
		return records[i].ValidUntil.After(*records[j].ValidUntil)
	})

	grouped := make(map[entity.Entity][]*models.FactRecord)
	for _, r := range records {
		e := entity.Entity(r.Entity)
		grouped[e] = append(grouped[e], r)
	}
	return grouped, nil
}

// Invalidate transitions one active record to historical.
func (s *MemoryStore) Invalidate(ctx context.Context, recordID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordID]
	if !ok || r.Status != models.StatusActive {
		return fmt.Errorf("invalidate fact %s: %w", recordID, ErrNotFound)
	}
	until := now
	r.Status = models.StatusHistorical
	r.ValidUntil = &until
	return nil
}

// InsertActive persists a new active record.
func (s *MemoryStore) InsertActive(ctx context.Context, record *models.FactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		return fmt.Errorf("insert fact: missing record ID")
	}
	s.records[record.ID] = s.clone(record)
	return nil
}

// clone copies a record so callers can never mutate stored state.
func (s *MemoryStore) clone(r *models.FactRecord) *models.FactRecord {
	copied := *r
	if r.ValidUntil != nil {
		until := *r.ValidUntil
		copied.ValidUntil = &until
	}
	return &copied
}
