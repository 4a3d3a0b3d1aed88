// Package service hosts the update orchestrator: the single entry point
// that turns a raw conversation message into fact store mutations. The
// orchestrator is strictly best effort. It never returns an error to its
// caller; every failure is absorbed, logged and counted, and the pipeline
// moves on to whatever work is still doable.
package service

import (
	"Mnemos/backend/go/internal/memory/diff"
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/extractor"
	"Mnemos/backend/go/internal/memory/metrics"
	"Mnemos/backend/go/internal/memory/resolver"
	"Mnemos/backend/go/internal/memory/retrieval"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/circuitbreaker"
	"Mnemos/backend/go/pkg/keyedmutex"
	"Mnemos/backend/go/pkg/logger"
	"context"
	"time"
)

// Timeouts bounds each stage of the pipeline. A zero value means the
// stage runs under the caller's context unchanged.
type Timeouts struct {
	Extract time.Duration
	Resolve time.Duration
	Apply   time.Duration
}

// UpdateResult reports how much of a message's extracted content made it
// into storage. Processed <= Attempted always holds; a wholly failed or
// empty message yields {0, 0}.
type UpdateResult struct {
	Processed int `json:"processed"`
	Attempted int `json:"total"`
}

// MemoryService coordinates extraction, resolution and reconciliation for
// incoming messages. Updates for the same (user, category) pair are
// serialized with a keyed mutex held across the whole read-resolve-write
// sequence, so concurrent messages cannot clobber each other's records.
type MemoryService struct {
	extractor extractor.Extractor
	resolver  resolver.Resolver
	engine    *diff.Engine
	store     store.Store
	retrieval *retrieval.Service
	locks     *keyedmutex.KeyedMutex
	timeouts  Timeouts
	logger    *logger.Logger

	// Breakers are optional; a nil breaker calls through directly.
	extractBreaker *circuitbreaker.Breaker
	resolveBreaker *circuitbreaker.Breaker
}

// NewMemoryService creates the orchestrator. retrievalSvc may be nil when
// no read-side cache needs dropping after writes.
func NewMemoryService(ext extractor.Extractor, res resolver.Resolver, engine *diff.Engine, st store.Store, retrievalSvc *retrieval.Service, timeouts Timeouts, log *logger.Logger) *MemoryService {
	return &MemoryService{
		extractor: ext,
		resolver:  res,
		engine:    engine,
		store:     st,
		retrieval: retrievalSvc,
		locks:     keyedmutex.New(),
		timeouts:  timeouts,
		logger:    log,
	}
}

// WithBreakers installs circuit breakers around the extraction and
// resolution calls. Either may be nil.
func (s *MemoryService) WithBreakers(extract, resolve *circuitbreaker.Breaker) *MemoryService {
	s.extractBreaker = extract
	s.resolveBreaker = resolve
	return s
}

// ApplyMessage runs the full pipeline for one conversation message:
// extract categorized facts, then reconcile each category independently.
// now is the arrival time of the message and becomes the temporal boundary
// for every record the message touches.
func (s *MemoryService) ApplyMessage(ctx context.Context, userID, rawMessage string, now time.Time) UpdateResult {
	metrics.MessagesTotal.Inc()
	log := s.logger.WithUser(userID)

	var extracted map[string][]string
	err := s.callBreaker(s.extractBreaker, func() error {
		extractCtx, cancel := s.stageContext(ctx, s.timeouts.Extract)
		defer cancel()
		var extractErr error
		extracted, extractErr = s.extractor.Extract(extractCtx, rawMessage)
		return extractErr
	})
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "extraction_failure"}).
			Warn("fact extraction failed, message skipped")
		return UpdateResult{}
	}
	if len(extracted) == 0 {
		log.Debug("no personal facts found in message")
		return UpdateResult{}
	}

	return s.ApplyExtracted(ctx, userID, rawMessage, extracted, now)
}

// ApplyExtracted reconciles pre-extracted facts against storage. Keys that
// are not recognized categories are dropped before any store interaction.
// Each remaining category is processed independently: one category failing
// never blocks the others, and partial progress within a category is kept.
func (s *MemoryService) ApplyExtracted(ctx context.Context, userID, rawMessage string, extracted map[string][]string, now time.Time) UpdateResult {
	log := s.logger.WithUser(userID)
	source := models.Source{Text: rawMessage, Timestamp: now}

	type pending struct {
		ent      entity.Entity
		newFacts []string
	}
	work := make([]pending, 0, len(extracted))
	for name, newFacts := range extracted {
		ent, err := entity.Parse(name)
		if err != nil {
			metrics.EntitiesProcessedTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
			log.WithPayload(map[string]interface{}{"category": name}).
				Debug("dropping unrecognized fact category")
			continue
		}
		work = append(work, pending{ent: ent, newFacts: newFacts})
	}

	result := UpdateResult{Attempted: len(work)}
	for _, w := range work {
		if s.applyEntity(ctx, log, userID, w.ent, w.newFacts, source, now) {
			result.Processed++
		}
	}

	if result.Attempted > 0 {
		log.WithPayload(map[string]interface{}{
			"processed": result.Processed,
			"total":     result.Attempted,
		}).Info("memory update finished")
	}
	return result
}

// applyEntity runs fetch, resolve and reconcile for one category under the
// per-(user, category) lock. Reports whether the category completed
// without failures.
func (s *MemoryService) applyEntity(ctx context.Context, log *logger.Logger, userID string, ent entity.Entity, newFacts []string, source models.Source, now time.Time) bool {
	lockKey := userID + "|" + string(ent)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	entLog := log.WithPayload(map[string]interface{}{"category": string(ent)})

	applyCtx, cancel := s.stageContext(ctx, s.timeouts.Apply)
	currentRecords, err := s.store.FetchActive(applyCtx, userID, ent)
	cancel()
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues("fetch_active").Inc()
		metrics.EntitiesProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		entLog.WithError(models.ErrorInfo{Message: err.Error(), Type: "store_failure"}).
			Error("failed to load current facts, category skipped")
		return false
	}
	current := make([]string, 0, len(currentRecords))
	for _, record := range currentRecords {
		current = append(current, record.Content)
	}

	resolved, err := s.resolveFacts(ctx, ent, current, newFacts)
	if err != nil {
		// A failed resolution must never destroy state: keep the facts
		// the user already has and move on.
		metrics.ResolutionFallbacksTotal.Inc()
		entLog.WithError(models.ErrorInfo{Message: err.Error(), Type: "resolution_fallback"}).
			Warn("fact resolution failed, keeping current facts")
		resolved = current
	}

	applyCtx, cancel = s.stageContext(ctx, s.timeouts.Apply)
	summary, err := s.engine.Apply(applyCtx, userID, ent, resolved, source, now)
	cancel()

	metrics.FactOperationsTotal.WithLabelValues("preserve").Add(float64(summary.Preserved))
	metrics.FactOperationsTotal.WithLabelValues("invalidate").Add(float64(summary.Invalidated))
	metrics.FactOperationsTotal.WithLabelValues("insert").Add(float64(summary.Inserted))

	if summary.Invalidated > 0 || summary.Inserted > 0 {
		s.dropCache(ctx, userID)
	}

	if err != nil {
		metrics.EntitiesProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		entLog.WithError(models.ErrorInfo{Message: err.Error(), Type: "reconcile_failure"}).
			WithPayload(map[string]interface{}{
				"preserved":   summary.Preserved,
				"invalidated": summary.Invalidated,
				"inserted":    summary.Inserted,
			}).
			Error("fact reconciliation finished with failures")
		return false
	}

	metrics.EntitiesProcessedTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return true
}

func (s *MemoryService) resolveFacts(ctx context.Context, ent entity.Entity, current, newFacts []string) ([]string, error) {
	var resolved []string
	err := s.callBreaker(s.resolveBreaker, func() error {
		resolveCtx, cancel := s.stageContext(ctx, s.timeouts.Resolve)
		defer cancel()
		var resolveErr error
		resolved, resolveErr = s.resolver.Resolve(resolveCtx, ent, current, newFacts)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *MemoryService) dropCache(ctx context.Context, userID string) {
	if s.retrieval == nil {
		return
	}
	s.retrieval.DropCache(ctx, userID)
}

func (s *MemoryService) callBreaker(b *circuitbreaker.Breaker, fn func() error) error {
	if b == nil {
		return fn()
	}
	return b.Do(fn)
}

func (s *MemoryService) stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
