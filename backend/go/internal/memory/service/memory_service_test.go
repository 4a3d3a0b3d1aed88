package service

import (
	"Mnemos/backend/go/internal/memory/diff"
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/resolver"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubExtractor struct {
	facts map[string][]string
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, message string) (map[string][]string, error) {
	return s.facts, s.err
}

// unionResolver merges current and new facts, deduplicated, the way a
// well-behaved model call would for non-conflicting content.
type unionResolver struct {
	err error
}

func (r *unionResolver) Resolve(ctx context.Context, ent entity.Entity, current, newFacts []string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	seen := make(map[string]struct{})
	var merged []string
	for _, f := range append(append([]string{}, current...), newFacts...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		merged = append(merged, f)
	}
	return merged, nil
}

// replaceResolver returns exactly the new facts, discarding current ones.
type replaceResolver struct{}

func (replaceResolver) Resolve(ctx context.Context, ent entity.Entity, current, newFacts []string) ([]string, error) {
	return newFacts, nil
}

func newTestService(st store.Store, ext *stubExtractor, res resolver.Resolver) *MemoryService {
	return NewMemoryService(ext, res, diff.NewEngine(st), st, nil, Timeouts{}, logger.New("memory-service-test"))
}

func activeContents(t *testing.T, st store.Store, userID string, ent entity.Entity) []string {
	t.Helper()
	records, err := st.FetchActive(context.Background(), userID, ent)
	if err != nil {
		t.Fatalf("FetchActive: %v", err)
	}
	contents := make([]string, 0, len(records))
	for _, r := range records {
		contents = append(contents, r.Content)
	}
	return contents
}

func TestApplyMessagePersistsExtractedFacts(t *testing.T) {
	st := store.NewMemoryStore()
	ext := &stubExtractor{facts: map[string][]string{
		"hobbies":  {"painting"},
		"location": {"lives in Berlin"},
	}}
	svc := newTestService(st, ext, &unionResolver{})

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := svc.ApplyMessage(context.Background(), "user-1", "I live in Berlin and paint", now)

	if result.Processed != 2 || result.Attempted != 2 {
		t.Fatalf("result = %+v, want {2 2}", result)
	}
	if got := activeContents(t, st, "user-1", entity.Hobbies); len(got) != 1 || got[0] != "painting" {
		t.Errorf("hobbies = %v, want [painting]", got)
	}
	if got := activeContents(t, st, "user-1", entity.Location); len(got) != 1 || got[0] != "lives in Berlin" {
		t.Errorf("location = %v, want [lives in Berlin]", got)
	}
}

func TestApplyMessageExtractionFailure(t *testing.T) {
	st := store.NewMemoryStore()
	ext := &stubExtractor{err: errors.New("model unavailable")}
	svc := newTestService(st, ext, &unionResolver{})

	result := svc.ApplyMessage(context.Background(), "user-1", "hello", time.Now())

	if result.Processed != 0 || result.Attempted != 0 {
		t.Fatalf("result = %+v, want {0 0}", result)
	}
	if got := activeContents(t, st, "user-1", entity.Hobbies); len(got) != 0 {
		t.Errorf("store should be untouched, got %v", got)
	}
}

func TestApplyMessageEmptyExtraction(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &stubExtractor{facts: map[string][]string{}}, &unionResolver{})

	result := svc.ApplyMessage(context.Background(), "user-1", "what is 2+2", time.Now())
	if result.Processed != 0 || result.Attempted != 0 {
		t.Fatalf("result = %+v, want {0 0}", result)
	}
}

func TestApplyExtractedDropsUnrecognizedCategories(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &stubExtractor{}, &unionResolver{})

	result := svc.ApplyExtracted(context.Background(), "user-1", "msg", map[string][]string{
		"hobbies":       {"chess"},
		"shoe_size":     {"44"},
		"secret_wishes": {"unknown"},
	}, time.Now().UTC())

	if result.Attempted != 1 {
		t.Fatalf("Attempted = %d, want 1 (unknown categories dropped before counting)", result.Attempted)
	}
	if result.Processed != 1 {
		t.Fatalf("Processed = %d, want 1", result.Processed)
	}
	if got := activeContents(t, st, "user-1", entity.Hobbies); len(got) != 1 || got[0] != "chess" {
		t.Errorf("hobbies = %v, want [chess]", got)
	}
}

func TestResolverFailureFallsBackToCurrentFacts(t *testing.T) {
	st := store.NewMemoryStore()
	seed := &models.FactRecord{
		ID:        "seed-1",
		UserID:    "user-1",
		Entity:    entity.Profession.String(),
		Content:   "works as a teacher",
		Status:    models.StatusActive,
		ValidFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := st.InsertActive(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestService(st, &stubExtractor{}, &unionResolver{err: errors.New("timeout")})
	result := svc.ApplyExtracted(context.Background(), "user-1", "msg", map[string][]string{
		"profession": {"works as a pilot"},
	}, time.Now().UTC())

	// The fallback keeps state stable; the category still counts as handled.
	if result.Processed != 1 || result.Attempted != 1 {
		t.Fatalf("result = %+v, want {1 1}", result)
	}
	if got := activeContents(t, st, "user-1", entity.Profession); len(got) != 1 || got[0] != "works as a teacher" {
		t.Errorf("profession = %v, want the pre-existing fact untouched", got)
	}
}

func TestReplacementSupersedesOldFact(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &stubExtractor{}, replaceResolver{})

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.ApplyExtracted(context.Background(), "user-1", "I live in Paris", map[string][]string{
		"location": {"lives in Paris"},
	}, first)

	second := first.Add(48 * time.Hour)
	svc.ApplyExtracted(context.Background(), "user-1", "I moved to Rome", map[string][]string{
		"location": {"lives in Rome"},
	}, second)

	if got := activeContents(t, st, "user-1", entity.Location); len(got) != 1 || got[0] != "lives in Rome" {
		t.Fatalf("active location = %v, want [lives in Rome]", got)
	}
	historical, err := st.FetchHistorical(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("FetchHistorical: %v", err)
	}
	old := historical[entity.Location]
	if len(old) != 1 || old[0].Content != "lives in Paris" {
		t.Fatalf("historical location = %+v, want the superseded Paris fact", old)
	}
	if old[0].ValidUntil == nil || !old[0].ValidUntil.Equal(second) {
		t.Errorf("superseded fact valid_until = %v, want %v", old[0].ValidUntil, second)
	}
}

// failOnInsertStore wraps a MemoryStore and fails inserts for one entity,
// so one category's persistence can break while others succeed.
type failOnInsertStore struct {
	*store.MemoryStore
	failEntity entity.Entity
}

func (f *failOnInsertStore) InsertActive(ctx context.Context, record *models.FactRecord) error {
	if record.Entity == f.failEntity.String() {
		return fmt.Errorf("insert rejected for %s", record.Entity)
	}
	return f.MemoryStore.InsertActive(ctx, record)
}

func TestPartialCategoryFailureStillCountsTheRest(t *testing.T) {
	st := &failOnInsertStore{MemoryStore: store.NewMemoryStore(), failEntity: entity.Goals}
	svc := newTestService(st, &stubExtractor{}, &unionResolver{})

	result := svc.ApplyExtracted(context.Background(), "user-1", "msg", map[string][]string{
		"hobbies": {"running"},
		"goals":   {"run a marathon"},
	}, time.Now().UTC())

	if result.Attempted != 2 {
		t.Fatalf("Attempted = %d, want 2", result.Attempted)
	}
	if result.Processed != 1 {
		t.Fatalf("Processed = %d, want 1 (failing category must not count)", result.Processed)
	}
	if got := activeContents(t, st, "user-1", entity.Hobbies); len(got) != 1 || got[0] != "running" {
		t.Errorf("hobbies = %v, want [running]", got)
	}
}

func TestConcurrentUpdatesToSameCategoryDoNotLoseFacts(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &stubExtractor{}, &unionResolver{})

	const writers = 8
	done := make(chan struct{}, writers)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			svc.ApplyExtracted(context.Background(), "user-1", "msg", map[string][]string{
				"hobbies": {fmt.Sprintf("hobby-%d", i)},
			}, base.Add(time.Duration(i)*time.Second))
		}(i)
	}
	for i := 0; i < writers; i++ {
		<-done
	}

	got := activeContents(t, st, "user-1", entity.Hobbies)
	if len(got) != writers {
		t.Fatalf("active hobbies = %v, want all %d concurrent additions preserved", got, writers)
	}
}
