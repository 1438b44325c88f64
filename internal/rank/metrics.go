package rank

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricScoreTotal          = "rank_score_total"
	MetricScoreErrors         = "rank_score_errors_total"
	MetricScoreDuration       = "rank_score_duration_seconds"
	MetricEntitiesRanked      = "rank_entities_ranked_total"
	MetricCacheHits           = "rank_cache_hits_total"
	MetricCacheMisses         = "rank_cache_misses_total"
	MetricWeightUpdates       = "rank_weight_updates_total"
	MetricPageRankIterations  = "rank_pagerank_iterations"
)

// Metrics contains Prometheus metrics for the ranking engine.
// All operations are thread-safe.
type Metrics struct {
	scoreTotal         *prometheus.CounterVec
	scoreErrors        *prometheus.CounterVec
	scoreDuration      prometheus.Histogram
	entitiesRanked     prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	weightUpdates      prometheus.Counter
	pageRankIterations prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		scoreTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScoreTotal,
				Help: "Total number of ranking operations by kind",
			},
			[]string{"op"},
		),
		scoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScoreErrors,
				Help: "Total number of failed ranking operations by kind",
			},
			[]string{"op"},
		),
		scoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricScoreDuration,
			Help:    "Histogram of ranking pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		entitiesRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEntitiesRanked,
			Help: "Total number of entities scored across all calls",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheHits,
			Help: "Total number of ranking cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheMisses,
			Help: "Total number of ranking cache misses",
		}),
		weightUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricWeightUpdates,
			Help: "Total number of weight configuration updates",
		}),
		pageRankIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricPageRankIterations,
			Help:    "Histogram of power iteration rounds until convergence",
			Buckets: []float64{1, 5, 10, 20, 30, 40, 50},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncScore increments the operation counter for the given kind.
func (m *Metrics) IncScore(op string) {
	m.scoreTotal.WithLabelValues(op).Inc()
}

// IncScoreError increments the error counter for the given kind.
func (m *Metrics) IncScoreError(op string) {
	m.scoreErrors.WithLabelValues(op).Inc()
}

// ObserveScoreDuration records a pipeline duration sample.
func (m *Metrics) ObserveScoreDuration(seconds float64) {
	m.scoreDuration.Observe(seconds)
}

// AddEntitiesRanked adds to the ranked entity counter.
func (m *Metrics) AddEntitiesRanked(n int) {
	m.entitiesRanked.Add(float64(n))
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	m.cacheHits.Inc()
}

// IncCacheMiss increments the cache miss counter.
func (m *Metrics) IncCacheMiss() {
	m.cacheMisses.Inc()
}

// ObservePageRankIterations records how many power iteration rounds a call ran.
func (m *Metrics) ObservePageRankIterations(rounds int) {
	m.pageRankIterations.Observe(float64(rounds))
}

// IncWeightUpdate increments the weight update counter.
func (m *Metrics) IncWeightUpdate() {
	m.weightUpdates.Inc()
}

// Collectors returns all Prometheus collectors for registration and tests.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.scoreTotal,
		m.scoreErrors,
		m.scoreDuration,
		m.entitiesRanked,
		m.cacheHits,
		m.cacheMisses,
		m.weightUpdates,
		m.pageRankIterations,
	}
}
