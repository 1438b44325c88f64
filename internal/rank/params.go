package rank

import "github.com/onnwee/irisrank/internal/entity"

// Params holds the engine's tunable constants. These are hand-tuned
// defaults exposed for configuration, not learned parameters.
type Params struct {
	// Damping is the PageRank damping factor; the remainder is the uniform
	// teleport mass that guarantees every batch node a positive baseline.
	Damping float64

	// MaxIterations bounds the power iteration. The scorer stops earlier when
	// the L1 delta between rounds drops below Epsilon.
	MaxIterations int

	// Epsilon is the convergence threshold for the power iteration.
	Epsilon float64

	// ActivityHalfLifeDays controls the exponential recency decay applied to
	// each activity's contribution.
	ActivityHalfLifeDays float64

	// ActivitySaturation is the k in 1-e^(-k*sum), the saturating transform
	// that keeps entities with enormous activity counts from dominating.
	ActivitySaturation float64

	// ConnectionHalfLifeDays controls the age decay applied to edge weights.
	ConnectionHalfLifeDays float64

	// DefaultConnectionAgeDays is assumed when a connection carries no
	// EstablishedAt. A non-zero default keeps undated edges from being
	// treated as brand new and biasing the graph.
	DefaultConnectionAgeDays float64

	// VelocityPeriodDays is the window length for momentum calculation.
	VelocityPeriodDays int

	// StalenessThresholdDays is the days-since-last-activity bar used by the
	// at-risk and churning classifications.
	StalenessThresholdDays int

	// ChurnVelocityThreshold is how negative (per day) velocity must be,
	// combined with staleness, to classify as churning.
	ChurnVelocityThreshold float64

	// MomentumScale steepens the logistic transform from velocity and
	// acceleration into the bounded momentum score.
	MomentumScale float64

	// NoActivitySentinelDays is reported as days-since-last-activity for
	// entities with no activity history, so downstream risk classification
	// treats "never active" as maximally stale.
	NoActivitySentinelDays int

	// DefaultLimit is the result count when the caller does not supply one.
	DefaultLimit int

	// BatchParallelism bounds how many batch sub-calls run concurrently.
	BatchParallelism int

	// NeutralRelevance is the relevance score assigned to every entity when
	// no query is supplied, so relevance neither dominates nor zeroes the
	// aggregate when unused.
	NeutralRelevance float64
}

// DefaultParams returns the documented default engine constants.
func DefaultParams() Params {
	return Params{
		Damping:                  0.85,
		MaxIterations:            50,
		Epsilon:                  1e-6,
		ActivityHalfLifeDays:     30,
		ActivitySaturation:       0.4,
		ConnectionHalfLifeDays:   90,
		DefaultConnectionAgeDays: 90,
		VelocityPeriodDays:       7,
		StalenessThresholdDays:   30,
		ChurnVelocityThreshold:   0.15,
		MomentumScale:            2.0,
		NoActivitySentinelDays:   999,
		DefaultLimit:             50,
		BatchParallelism:         4,
		NeutralRelevance:         0.5,
	}
}

// Validate checks the parameter bounds. Returns a ConfigError on the first
// violation.
func (p Params) Validate() error {
	if p.Damping <= 0 || p.Damping >= 1 {
		return &ConfigError{Field: "damping", Reason: "must be in (0, 1)"}
	}
	if p.MaxIterations <= 0 {
		return &ConfigError{Field: "max_iterations", Reason: "must be positive"}
	}
	if p.ActivityHalfLifeDays <= 0 {
		return &ConfigError{Field: "activity_half_life_days", Reason: "must be positive"}
	}
	if p.ConnectionHalfLifeDays <= 0 {
		return &ConfigError{Field: "connection_half_life_days", Reason: "must be positive"}
	}
	if p.VelocityPeriodDays <= 0 {
		return &ConfigError{Field: "velocity_period_days", Reason: "must be positive"}
	}
	if p.BatchParallelism <= 0 {
		return &ConfigError{Field: "batch_parallelism", Reason: "must be positive"}
	}
	return nil
}

// outcomeWeight maps an activity outcome to its engagement multiplier.
// Negative outcomes still count as engagement, just lower-weighted.
var outcomeWeight = map[entity.Outcome]float64{
	entity.OutcomePositive: 1.0,
	entity.OutcomeNeutral:  0.6,
	entity.OutcomeNegative: 0.3,
}

// defaultOutcomeWeight is used for activities with an empty or unknown outcome.
const defaultOutcomeWeight = 0.6

// weightForOutcome returns the engagement multiplier for an outcome.
func weightForOutcome(o entity.Outcome) float64 {
	if w, ok := outcomeWeight[o]; ok {
		return w
	}
	return defaultOutcomeWeight
}
