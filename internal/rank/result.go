package rank

// Result is the externally visible ranking output for one entity. Every
// component score and the composite rank are bounded to [0,1].
type Result struct {
	EntityID       string   `json:"entity_id"`
	EntityName     string   `json:"entity_name"`
	EntityType     string   `json:"entity_type"`
	Rank           float64  `json:"rank"`
	NetworkScore   float64  `json:"network_score"`
	ActivityScore  float64  `json:"activity_score"`
	RelevanceScore float64  `json:"relevance_score"`
	Momentum       Momentum `json:"momentum"`
	Explanation    []string `json:"explanation"`
}

// RiskLevel buckets how urgently an at-risk entity needs attention.
type RiskLevel string

// Risk levels, ordered by severity.
const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// RiskResult is a ranking result annotated with churn risk detail.
type RiskResult struct {
	Result
	RiskLevel   RiskLevel `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"`
}

// BatchResult reports one batch's outcome. A failed batch carries its error
// message without affecting sibling batches.
type BatchResult struct {
	BatchID string   `json:"batch_id"`
	Results []Result `json:"results,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// InsightsSummary aggregates headline statistics over a full ranking pass.
type InsightsSummary struct {
	TotalEntities int     `json:"total_entities"`
	MeanRank      float64 `json:"mean_rank"`
	MeanMomentum  float64 `json:"mean_momentum"`
	RankStdDev    float64 `json:"rank_std_dev"`
}

// InsightsDistribution breaks the ranked population down by trend and type.
type InsightsDistribution struct {
	ByTrend map[Trend]int  `json:"by_trend"`
	ByType  map[string]int `json:"by_type"`
}

// Insights is the aggregate statistics output of an unlimited ranking pass.
type Insights struct {
	Summary         InsightsSummary      `json:"summary"`
	Distribution    InsightsDistribution `json:"distribution"`
	Recommendations []string             `json:"recommendations"`
}

// Stats reports the service's running counters.
type Stats struct {
	ScoreCalls    uint64  `json:"score_calls"`
	BatchCalls    uint64  `json:"batch_calls"`
	AtRiskCalls   uint64  `json:"at_risk_calls"`
	MomentumCalls uint64  `json:"momentum_calls"`
	InsightsCalls uint64  `json:"insights_calls"`
	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
}

// Config is the runtime configuration view returned to administrative callers.
type Config struct {
	Weights            Weights  `json:"weights"`
	VelocityPeriodDays int      `json:"velocity_period_days"`
	ActivityTypes      []string `json:"activity_types"`
	RelationshipTypes  []string `json:"relationship_types"`
}
