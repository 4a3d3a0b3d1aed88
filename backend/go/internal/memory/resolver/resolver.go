// Package resolver merges newly observed facts with a category's current
// facts into one authoritative list.
package resolver

import (
	"Mnemos/backend/go/internal/memory/entity"
	"context"
)

// Resolver produces the complete desired fact list for one category. When
// current and newFacts conflict, the newest information wins. A resolver
// failure must never destroy existing facts: the orchestrator falls back
// to current on any error.
type Resolver interface {
	Resolve(ctx context.Context, ent entity.Entity, current, newFacts []string) ([]string, error)
}
