// Package store persists fact records with their temporal status.
package store

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/models"
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Invalidate when no matching active record
// exists.
var ErrNotFound = errors.New("fact record not found")

// Store defines the interface for fact record persistence. Every query and
// mutation is scoped by the owning user. Records are never deleted in
// normal operation; Invalidate is the only permitted state transition and
// it never touches content, entity, user or provenance.
type Store interface {
	// FetchActive returns all active records for one entity, ordered by
	// valid_from ascending.
	FetchActive(ctx context.Context, userID string, e entity.Entity) ([]*models.FactRecord, error)

	// FetchAllActive returns the content of every active record for the
	// user, grouped by entity.
	FetchAllActive(ctx context.Context, userID string) (map[entity.Entity][]string, error)

	// FetchHistorical returns superseded records grouped by entity,
	// ordered by valid_until descending within each entity. An empty
	// filter returns all entities.
	FetchHistorical(ctx context.Context, userID string, filter entity.Entity) (map[entity.Entity][]*models.FactRecord, error)

	// Invalidate transitions an active record to historical, setting
	// valid_until to now. Returns ErrNotFound when the record does not
	// exist or is no longer active.
	Invalidate(ctx context.Context, recordID string, now time.Time) error

	// InsertActive persists a new active record.
	InsertActive(ctx context.Context, record *models.FactRecord) error
}
