package retrieval

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/logger"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

const testUser = "user-1"

func seedRecord(t *testing.T, s store.Store, id string, e entity.Entity, content string, from time.Time) {
	t.Helper()
	err := s.InsertActive(context.Background(), &models.FactRecord{
		ID:        id,
		UserID:    testUser,
		Entity:    e.String(),
		Content:   content,
		Status:    models.StatusActive,
		ValidFrom: from,
		Source:    models.Source{Text: "seed", Timestamp: from},
	})
	if err != nil {
		t.Fatalf("InsertActive() error: %v", err)
	}
}

func TestAllActiveFactsGroupsByEntity(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, nil, logger.New("test"))
	now := time.Now().UTC()

	seedRecord(t, s, "1", entity.Location, "Lives in Boston", now)
	seedRecord(t, s, "2", entity.Hobbies, "Hiking", now)
	seedRecord(t, s, "3", entity.Hobbies, "Photography", now.Add(time.Minute))

	got := svc.AllActiveFacts(context.Background(), testUser)
	want := map[string][]string{
		"location": {"Lives in Boston"},
		"hobbies":  {"Hiking", "Photography"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllActiveFacts() = %v, want %v", got, want)
	}
}

func TestEntityFactsActiveOnly(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, nil, logger.New("test"))
	now := time.Now().UTC()

	seedRecord(t, s, "1", entity.Location, "Boston", now)
	if err := s.Invalidate(context.Background(), "1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	seedRecord(t, s, "2", entity.Location, "New York", now.Add(time.Hour))

	got := svc.EntityFacts(context.Background(), testUser, entity.Location)
	if !reflect.DeepEqual(got, []string{"New York"}) {
		t.Errorf("EntityFacts() = %v, want [New York]", got)
	}
}

func TestHistoricalFactsOrderAndFormat(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, nil, logger.New("test"))
	ctx := context.Background()
	t0 := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	t1 := time.Date(2024, 3, 20, 14, 20, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	seedRecord(t, s, "1", entity.Location, "San Francisco", t0)
	if err := s.Invalidate(ctx, "1", t1); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	seedRecord(t, s, "2", entity.Location, "Boston", t1)
	if err := s.Invalidate(ctx, "2", t2); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}

	got := svc.HistoricalFacts(ctx, testUser, entity.Location)
	facts := got["location"]
	if len(facts) != 2 {
		t.Fatalf("historical facts = %d, want 2", len(facts))
	}
	// Most recently superseded first.
	if facts[0].Content != "Boston" || facts[1].Content != "San Francisco" {
		t.Errorf("order = [%s, %s], want [Boston, San Francisco]", facts[0].Content, facts[1].Content)
	}
	if facts[1].ValidFrom != "2024-01-15T10:30:00Z" {
		t.Errorf("valid_from = %q, want RFC 3339 of t0", facts[1].ValidFrom)
	}
	if facts[1].ValidUntil != "2024-03-20T14:20:00Z" {
		t.Errorf("valid_until = %q, want RFC 3339 of t1", facts[1].ValidUntil)
	}
}

func TestHistoricalFactsEntityFilter(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, nil, logger.New("test"))
	ctx := context.Background()
	now := time.Now().UTC()

	seedRecord(t, s, "1", entity.Location, "Boston", now)
	seedRecord(t, s, "2", entity.Hobbies, "Chess", now)
	for _, id := range []string{"1", "2"} {
		if err := s.Invalidate(ctx, id, now.Add(time.Hour)); err != nil {
			t.Fatalf("Invalidate(%s) error: %v", id, err)
		}
	}

	got := svc.HistoricalFacts(ctx, testUser, entity.Location)
	if _, ok := got["hobbies"]; ok {
		t.Error("filter leaked another entity into the result")
	}
	if len(got["location"]) != 1 {
		t.Errorf("filtered result = %v, want one location fact", got)
	}
}

// brokenStore fails every read.
type brokenStore struct{ *store.MemoryStore }

var errStoreDown = errors.New("store down")

func (b *brokenStore) FetchAllActive(ctx context.Context, userID string) (map[entity.Entity][]string, error) {
	return nil, errStoreDown
}

func (b *brokenStore) FetchActive(ctx context.Context, userID string, e entity.Entity) ([]*models.FactRecord, error) {
	return nil, errStoreDown
}

func (b *brokenStore) FetchHistorical(ctx context.Context, userID string, filter entity.Entity) (map[entity.Entity][]*models.FactRecord, error) {
	return nil, errStoreDown
}

func TestReadsDegradeToEmptyOnStoreFailure(t *testing.T) {
	svc := NewService(&brokenStore{store.NewMemoryStore()}, nil, logger.New("test"))
	ctx := context.Background()

	if got := svc.AllActiveFacts(ctx, testUser); len(got) != 0 {
		t.Errorf("AllActiveFacts() = %v, want empty", got)
	}
	if got := svc.EntityFacts(ctx, testUser, entity.Location); len(got) != 0 {
		t.Errorf("EntityFacts() = %v, want empty", got)
	}
	if got := svc.HistoricalFacts(ctx, testUser, ""); len(got) != 0 {
		t.Errorf("HistoricalFacts() = %v, want empty", got)
	}
}

func TestCacheServesAndDrops(t *testing.T) {
	s := store.NewMemoryStore()
	cache, err := NewLocalCache(16, time.Minute)
	if err != nil {
		t.Fatalf("NewLocalCache() error: %v", err)
	}
	svc := NewService(s, cache, logger.New("test"))
	ctx := context.Background()
	now := time.Now().UTC()

	seedRecord(t, s, "1", entity.Name, "Alex", now)

	first := svc.AllActiveFacts(ctx, testUser)
	if !reflect.DeepEqual(first, map[string][]string{"name": {"Alex"}}) {
		t.Fatalf("AllActiveFacts() = %v", first)
	}

	// A write behind the cache's back is invisible until the entry drops.
	seedRecord(t, s, "2", entity.Name, "Alexander", now.Add(time.Minute))
	if got := svc.AllActiveFacts(ctx, testUser); len(got["name"]) != 1 {
		t.Errorf("cached view = %v, want stale single fact", got)
	}

	svc.DropCache(ctx, testUser)
	if got := svc.AllActiveFacts(ctx, testUser); len(got["name"]) != 2 {
		t.Errorf("post-drop view = %v, want both facts", got)
	}
}
