// Package retrieval provides the read-side views over the fact store used
// by the conversational layer. All views degrade to empty results on store
// failure: the caller can never distinguish "nothing stored" from "store
// down", so the distinction is kept alive in logs and metrics instead.
package retrieval

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/metrics"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/logger"
	"context"
	"time"
)

// Service exposes read-only fact views.
type Service struct {
	store  store.Store
	cache  Cache
	logger *logger.Logger
}

// NewService creates a retrieval Service. cache may be nil, in which case
// every read goes to the store.
func NewService(s store.Store, cache Cache, log *logger.Logger) *Service {
	return &Service{store: s, cache: cache, logger: log}
}

// AllActiveFacts returns every active fact for the user, grouped by
// entity.
func (s *Service) AllActiveFacts(ctx context.Context, userID string) map[string][]string {
	if s.cache != nil {
		if facts, ok := s.cache.Get(ctx, userID); ok {
			return facts
		}
	}

	grouped, err := s.store.FetchAllActive(ctx, userID)
	if err != nil {
		metrics.RetrievalFailuresTotal.WithLabelValues("all_active").Inc()
		s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Error("failed to fetch active facts, returning empty view")
		return map[string][]string{}
	}

	facts := make(map[string][]string, len(grouped))
	for ent, contents := range grouped {
		facts[ent.String()] = contents
	}

	if s.cache != nil {
		s.cache.Set(ctx, userID, facts)
	}
	return facts
}

// EntityFacts returns the active facts for one entity.
func (s *Service) EntityFacts(ctx context.Context, userID string, ent entity.Entity) []string {
	if s.cache != nil {
		if facts, ok := s.cache.Get(ctx, userID); ok {
			return facts[ent.String()]
		}
	}

	records, err := s.store.FetchActive(ctx, userID, ent)
	if err != nil {
		metrics.RetrievalFailuresTotal.WithLabelValues("entity").Inc()
		s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Error("failed to fetch entity facts, returning empty view")
		return nil
	}

	contents := make([]string, 0, len(records))
	for _, r := range records {
		contents = append(contents, r.Content)
	}
	return contents
}

// HistoricalFacts returns superseded facts grouped by entity, most
// recently invalidated first, with RFC 3339 validity windows. filter may
// be empty to return all entities.
func (s *Service) HistoricalFacts(ctx context.Context, userID string, filter entity.Entity) map[string][]models.HistoricalFact {
	grouped, err := s.store.FetchHistorical(ctx, userID, filter)
	if err != nil {
		metrics.RetrievalFailuresTotal.WithLabelValues("historical").Inc()
		s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Error("failed to fetch historical facts, returning empty view")
		return map[string][]models.HistoricalFact{}
	}

	result := make(map[string][]models.HistoricalFact, len(grouped))
	for ent, records := range grouped {
		facts := make([]models.HistoricalFact, 0, len(records))
		for _, r := range records {
			fact := models.HistoricalFact{Content: r.Content}
			if !r.ValidFrom.IsZero() {
				fact.ValidFrom = r.ValidFrom.UTC().Format(time.RFC3339)
			}
			if r.ValidUntil != nil {
				fact.ValidUntil = r.ValidUntil.UTC().Format(time.RFC3339)
			}
			facts = append(facts, fact)
		}
		result[ent.String()] = facts
	}
	return result
}

// DropCache removes the user's cached active view. The orchestrator calls
// this after any write so reads never serve stale state for longer than
// one in-flight request.
func (s *Service) DropCache(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Drop(ctx, userID)
	}
}
