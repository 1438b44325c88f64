package rank

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/irisrank/internal/cache"
	"github.com/onnwee/irisrank/internal/entity"
	"github.com/onnwee/irisrank/internal/tracing"
)

// ScoreRequest is one full ranking call.
type ScoreRequest struct {
	// CallerID identifies the calling user for cache keying. Optional.
	CallerID string
	Entities []entity.Entity
	Context  entity.Context
	// Limit truncates the ranked output; 0 means the engine default.
	Limit int
	// WeightsOverride, when non-nil, replaces the process-wide weights for
	// this call only.
	WeightsOverride *Weights
}

// BatchRequest is one independent sub-call of BatchScore.
type BatchRequest struct {
	BatchID  string          `json:"batch_id"`
	Entities []entity.Entity `json:"entities"`
	Context  entity.Context  `json:"context"`
	Limit    int             `json:"limit,omitempty"`
}

// Service orchestrates the scoring pipeline. It is stateless per call except
// for the shared weight configuration, the result cache, and running
// counters; concurrent calls are safe.
type Service struct {
	params  Params
	weights *WeightStore
	results *cache.Cache[[]Result]
	metrics *Metrics
	now     func() time.Time

	scoreCalls    atomic.Uint64
	batchCalls    atomic.Uint64
	atRiskCalls   atomic.Uint64
	momentumCalls atomic.Uint64
	insightsCalls atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithParams overrides the default engine constants.
func WithParams(p Params) Option {
	return func(s *Service) { s.params = p }
}

// WithCache attaches a result cache.
func WithCache(c *cache.Cache[[]Result]) Option {
	return func(s *Service) { s.results = c }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ranking service seeded with the given weights.
func NewService(w Weights, opts ...Option) (*Service, error) {
	s := &Service{
		params:  DefaultParams(),
		weights: NewWeightStore(w),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Score runs the full pipeline: validate, dedupe, type-filter, score, sort,
// truncate. Results are memoized by request fingerprint when a cache is
// attached.
func (s *Service) Score(ctx context.Context, req ScoreRequest) ([]Result, error) {
	s.scoreCalls.Add(1)
	s.incMetric("score")
	start := s.now()

	if err := entity.ValidateSet(req.Entities); err != nil {
		s.errMetric("score")
		return nil, &ValidationError{Reason: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		s.errMetric("score")
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.params.DefaultLimit
	}

	weights := s.weights.Snapshot()
	if req.WeightsOverride != nil {
		if err := req.WeightsOverride.Validate(); err != nil {
			s.errMetric("score")
			return nil, err
		}
		weights = *req.WeightsOverride
	}

	// The fingerprint covers the weight snapshot, so a weight update is
	// visible to every later call even when the inputs are byte-identical.
	var key string
	if s.results != nil && req.WeightsOverride == nil {
		k, err := cache.Fingerprint(req.CallerID, req.Context, req.Entities, limit, weights.Vector())
		if err == nil {
			key = k
			if cached, ok := s.results.Get(key); ok {
				s.cacheMetric(true)
				tracing.AddEvent(ctx, "cache_hit", attribute.Int("results", len(cached)))
				return cached, nil
			}
			s.cacheMetric(false)
		} else {
			slog.Warn("fingerprint failed, skipping cache", "error", err)
		}
	}

	results := s.rankAll(ctx, req.Entities, req.Context, weights)

	if limit < len(results) {
		results = results[:limit]
	}

	if s.metrics != nil {
		s.metrics.AddEntitiesRanked(len(results))
		s.metrics.ObserveScoreDuration(s.now().Sub(start).Seconds())
	}
	if key != "" {
		s.results.Put(key, results)
	}
	return results, nil
}

// rankAll runs all four scorers and the aggregator over the (deduped,
// type-filtered) entity set and returns results sorted descending by rank,
// with deterministic tie-breaking by momentum then id.
func (s *Service) rankAll(ctx context.Context, entities []entity.Entity, rctx entity.Context, weights Weights) []Result {
	now := s.now()

	deduped := entity.Dedupe(entities)
	kept := make([]*entity.Entity, 0, len(deduped))
	for i := range deduped {
		if rctx.TypeAllowed(deduped[i].Type) {
			kept = append(kept, &deduped[i])
		}
	}
	if len(kept) == 0 {
		// A type filter disjoint from the input is an empty result, not an error.
		return []Result{}
	}

	ctx, endNetwork := tracing.StartScoringSpan(ctx, tracing.StageNetwork, len(kept))
	graph := s.params.buildGraph(kept, now)
	network, rounds := s.params.pageRank(graph)
	endNetwork(nil)
	if s.metrics != nil {
		s.metrics.ObservePageRankIterations(rounds)
	}

	_, endAggregate := tracing.StartScoringSpan(ctx, tracing.StageAggregate, len(kept))
	defer endAggregate(nil)

	hasQuery := len(tokenize(rctx.Query)) > 0
	results := make([]Result, len(kept))
	for i, e := range kept {
		mom := s.params.momentum(e, now)
		r := Result{
			EntityID:       e.ID,
			EntityName:     e.Name,
			EntityType:     e.Type,
			NetworkScore:   clamp01(network[i]),
			ActivityScore:  clamp01(s.params.activityScore(e, now)),
			RelevanceScore: clamp01(s.params.relevanceScore(e, rctx.Query)),
			Momentum:       mom,
		}
		r.Rank = aggregate(weights, r.NetworkScore, r.ActivityScore, r.RelevanceScore, mom.Score)
		r.Explanation = explain(&r, hasQuery)
		results[i] = r
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Rank != results[j].Rank {
			return results[i].Rank > results[j].Rank
		}
		if results[i].Momentum.Score != results[j].Momentum.Score {
			return results[i].Momentum.Score > results[j].Momentum.Score
		}
		return results[i].EntityID < results[j].EntityID
	})
	return results
}

// BatchScore runs up to MaxBatches independent sub-calls concurrently with
// bounded parallelism. One batch's failure never aborts its siblings; each
// result slot reports its own outcome. The caller ID scopes each sub-call's
// cache entry the same way a direct Score call would be scoped.
func (s *Service) BatchScore(ctx context.Context, callerID string, batches []BatchRequest) ([]BatchResult, error) {
	s.batchCalls.Add(1)
	s.incMetric("batch")

	if len(batches) == 0 {
		s.errMetric("batch")
		return nil, &ValidationError{Reason: "batch list must not be empty"}
	}
	if len(batches) > entity.MaxBatches {
		s.errMetric("batch")
		return nil, &ValidationError{Reason: entity.ErrTooManyBatches.Error()}
	}

	ctx, endSpan := tracing.StartSpan(ctx, "batch_score")
	defer endSpan(nil)

	results := make([]BatchResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.BatchParallelism)
	for i, b := range batches {
		g.Go(func() error {
			res := BatchResult{BatchID: b.BatchID}
			scored, err := s.Score(gctx, ScoreRequest{
				CallerID: callerID,
				Entities: b.Entities,
				Context:  b.Context,
				Limit:    b.Limit,
			})
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Results = scored
			}
			results[i] = res
			// Per-batch errors are isolated; never fail the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AtRisk ranks the full entity set, filters to declining trends, and sorts by
// severity: churning before at_risk, then staler first.
func (s *Service) AtRisk(ctx context.Context, req ScoreRequest, inactivityThresholdDays int) ([]RiskResult, error) {
	s.atRiskCalls.Add(1)
	s.incMetric("at_risk")

	if inactivityThresholdDays <= 0 {
		inactivityThresholdDays = s.params.StalenessThresholdDays
	}

	full := req
	full.Limit = entity.MaxEntities
	results, err := s.Score(ctx, full)
	if err != nil {
		s.errMetric("at_risk")
		return nil, err
	}

	risks := make([]RiskResult, 0, len(results))
	for i := range results {
		r := results[i]
		if r.Momentum.Trend != TrendAtRisk && r.Momentum.Trend != TrendChurning {
			continue
		}
		risks = append(risks, RiskResult{
			Result:      r,
			RiskLevel:   riskLevel(&r, inactivityThresholdDays),
			RiskFactors: riskFactors(&r, inactivityThresholdDays),
		})
	}

	sort.Slice(risks, func(i, j int) bool {
		ci := risks[i].Momentum.Trend == TrendChurning
		cj := risks[j].Momentum.Trend == TrendChurning
		if ci != cj {
			return ci
		}
		if risks[i].Momentum.DaysSinceLastActivity != risks[j].Momentum.DaysSinceLastActivity {
			return risks[i].Momentum.DaysSinceLastActivity > risks[j].Momentum.DaysSinceLastActivity
		}
		return risks[i].EntityID < risks[j].EntityID
	})

	limit := req.Limit
	if limit <= 0 {
		limit = s.params.DefaultLimit
	}
	if limit < len(risks) {
		risks = risks[:limit]
	}
	return risks, nil
}

// Momentum returns the entities gaining ground: accelerating or steady trend
// with positive momentum, sorted descending by momentum score.
func (s *Service) Momentum(ctx context.Context, req ScoreRequest) ([]Result, error) {
	s.momentumCalls.Add(1)
	s.incMetric("momentum")

	full := req
	full.Limit = entity.MaxEntities
	results, err := s.Score(ctx, full)
	if err != nil {
		s.errMetric("momentum")
		return nil, err
	}

	gaining := make([]Result, 0, len(results))
	for _, r := range results {
		if (r.Momentum.Trend == TrendAccelerating || r.Momentum.Trend == TrendSteady) && r.Momentum.Score > 0.5 {
			gaining = append(gaining, r)
		}
	}

	sort.Slice(gaining, func(i, j int) bool {
		if gaining[i].Momentum.Score != gaining[j].Momentum.Score {
			return gaining[i].Momentum.Score > gaining[j].Momentum.Score
		}
		return gaining[i].EntityID < gaining[j].EntityID
	})

	limit := req.Limit
	if limit <= 0 {
		limit = s.params.DefaultLimit
	}
	if limit < len(gaining) {
		gaining = gaining[:limit]
	}
	return gaining, nil
}

// UpdateWeights applies a partial weight update. The change is visible to
// every call issued after it completes and is never observed partially by a
// concurrent in-flight call.
func (s *Service) UpdateWeights(patch WeightPatch) (Weights, error) {
	w, err := s.weights.Update(patch)
	if err != nil {
		return w, err
	}
	if s.metrics != nil {
		s.metrics.IncWeightUpdate()
	}
	slog.Info("ranking weights updated",
		"network", w.Network,
		"activity", w.Activity,
		"relevance", w.Relevance,
		"momentum", w.Momentum)
	return w, nil
}

// Config returns the current runtime configuration view.
func (s *Service) Config() Config {
	return Config{
		Weights:            s.weights.Snapshot(),
		VelocityPeriodDays: s.params.VelocityPeriodDays,
		ActivityTypes:      knownActivityTypes(),
		RelationshipTypes:  knownRelationshipTypes(),
	}
}

// Stats returns the running call counters and cache metrics.
func (s *Service) Stats() Stats {
	st := Stats{
		ScoreCalls:    s.scoreCalls.Load(),
		BatchCalls:    s.batchCalls.Load(),
		AtRiskCalls:   s.atRiskCalls.Load(),
		MomentumCalls: s.momentumCalls.Load(),
		InsightsCalls: s.insightsCalls.Load(),
	}
	if s.results != nil {
		st.CacheHits, st.CacheMisses = s.results.Counters()
		if total := st.CacheHits + st.CacheMisses; total > 0 {
			st.CacheHitRate = float64(st.CacheHits) / float64(total)
		}
	}
	return st
}

// knownActivityTypes is the vocabulary advertised by Config. The engine
// accepts free-form types; these are the ones the scorer was tuned against.
func knownActivityTypes() []string {
	return []string{"email", "call", "meeting", "note", "task", "demo"}
}

// knownRelationshipTypes is the advertised relationship vocabulary.
func knownRelationshipTypes() []string {
	return []string{"works_at", "reports_to", "introduced_by", "partner_of", "deal_with"}
}

func (s *Service) incMetric(op string) {
	if s.metrics != nil {
		s.metrics.IncScore(op)
	}
}

func (s *Service) errMetric(op string) {
	if s.metrics != nil {
		s.metrics.IncScoreError(op)
	}
}

func (s *Service) cacheMetric(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.IncCacheHit()
	} else {
		s.metrics.IncCacheMiss()
	}
}
