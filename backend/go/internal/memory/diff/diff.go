// Package diff reconciles the active fact set for one (user, entity)
// against a resolved fact list while preserving temporal history.
package diff

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Summary reports the operations a single Apply performed. Counts reflect
// operations that actually succeeded.
type Summary struct {
	Preserved   int `json:"preserved"`
	Invalidated int `json:"invalidated"`
	Inserted    int `json:"inserted"`
}

// Engine is the sole writer of fact records. It treats facts as an
// unordered, content-equal set per category: the external resolver already
// produced the desired end state, so the engine's only job is to bring set
// membership in storage into agreement with it.
type Engine struct {
	store store.Store
}

// NewEngine creates a new Engine.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Apply brings the active records for (userID, e) in line with resolved.
//
// Unchanged content keeps its record untouched, so the original valid_from
// survives. Removed content is invalidated with valid_until=now. Added
// content is inserted active with valid_from=now and the given provenance.
//
// Record operations are independent: a failure on one record is recorded
// and the remaining operations still run. Already-applied changes are
// never rolled back; the summary counts what actually happened and the
// returned error aggregates the per-record failures.
func (e *Engine) Apply(ctx context.Context, userID string, ent entity.Entity, resolved []string, source models.Source, now time.Time) (Summary, error) {
	var summary Summary

	current, err := e.store.FetchActive(ctx, userID, ent)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch active facts for %s: %w", ent, err)
	}

	currentByContent := make(map[string]*models.FactRecord, len(current))
	for _, record := range current {
		currentByContent[record.Content] = record
	}
	resolvedSet := make(map[string]struct{}, len(resolved))
	for _, content := range resolved {
		resolvedSet[content] = struct{}{}
	}

	var errs []error

	for content, record := range currentByContent {
		if _, keep := resolvedSet[content]; keep {
			summary.Preserved++
			continue
		}
		if err := e.store.Invalidate(ctx, record.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %q: %w", content, err))
			continue
		}
		summary.Invalidated++
	}

	for content := range resolvedSet {
		if _, exists := currentByContent[content]; exists {
			continue
		}
		record := &models.FactRecord{
			ID:        uuid.New().String(),
			UserID:    userID,
			Entity:    ent.String(),
			Content:   content,
			Status:    models.StatusActive,
			ValidFrom: now,
			Source:    source,
		}
		if err := e.store.InsertActive(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("insert %q: %w", content, err))
			continue
		}
		summary.Inserted++
	}

	return summary, errors.Join(errs...)
}
