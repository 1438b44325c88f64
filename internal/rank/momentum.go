package rank

import (
	"math"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

// Trend classifies an entity's engagement trajectory.
type Trend string

// Trend values, from best to worst. Unknown means there was not enough
// activity history to compute the finite differences.
const (
	TrendAccelerating Trend = "accelerating"
	TrendSteady       Trend = "steady"
	TrendAtRisk       Trend = "at_risk"
	TrendChurning     Trend = "churning"
	TrendUnknown      Trend = "unknown"
)

// Momentum holds the derived rate-of-change metrics for an entity.
// Velocity is outcome-weighted activity change per day between the current
// window and the previous one; acceleration is the change in velocity across
// the window before that.
type Momentum struct {
	Velocity              float64 `json:"velocity"`
	Acceleration          float64 `json:"acceleration"`
	Trend                 Trend   `json:"trend"`
	DaysSinceLastActivity int     `json:"days_since_last_activity"`
	Score                 float64 `json:"momentum_score"`
}

// momentum derives velocity, acceleration, staleness, and a trend
// classification from an entity's activity time series, using three adjacent
// windows of VelocityPeriodDays each.
func (p Params) momentum(e *entity.Entity, now time.Time) Momentum {
	if len(e.Activities) == 0 {
		// The sentinel keeps downstream risk classification treating
		// "never active" as maximally stale.
		return Momentum{
			Trend:                 TrendUnknown,
			DaysSinceLastActivity: p.NoActivitySentinelDays,
			Score:                 0.5,
		}
	}

	period := time.Duration(p.VelocityPeriodDays) * hoursPerDay * time.Hour
	w0Start := now.Add(-period)
	w1Start := now.Add(-2 * period)
	w2Start := now.Add(-3 * period)

	current := windowedActivity(e.Activities, w0Start, now)
	previous := windowedActivity(e.Activities, w1Start, w0Start)
	oldest := windowedActivity(e.Activities, w2Start, w1Start)

	days := float64(p.VelocityPeriodDays)
	velocity := (current - previous) / days
	prevVelocity := (previous - oldest) / days
	acceleration := velocity - prevVelocity

	staleDays := daysSince(e.Activities, now, p.NoActivitySentinelDays)

	m := Momentum{
		Velocity:              velocity,
		Acceleration:          acceleration,
		DaysSinceLastActivity: staleDays,
	}
	m.Trend = p.classifyTrend(velocity, acceleration, staleDays)
	if m.Trend == TrendUnknown {
		m.Score = 0.5
	} else {
		m.Score = p.momentumScore(velocity, acceleration)
	}
	return m
}

// classifyTrend applies the trend rules in priority order.
func (p Params) classifyTrend(velocity, acceleration float64, staleDays int) Trend {
	switch {
	case velocity <= -p.ChurnVelocityThreshold && staleDays > p.StalenessThresholdDays:
		return TrendChurning
	case velocity < 0 || staleDays > p.StalenessThresholdDays:
		return TrendAtRisk
	case velocity > 0 && acceleration > 0:
		return TrendAccelerating
	default:
		return TrendSteady
	}
}

// momentumScore maps velocity plus half the acceleration through a logistic
// transform into [0,1]. Zero movement lands exactly on the 0.5 midpoint.
func (p Params) momentumScore(velocity, acceleration float64) float64 {
	signal := velocity + 0.5*acceleration
	return 1 / (1 + math.Exp(-p.MomentumScale*signal))
}

// daysSince returns whole days since the most recent activity, or the
// sentinel when the history is empty.
func daysSince(activities []entity.Activity, now time.Time, sentinel int) int {
	if len(activities) == 0 {
		return sentinel
	}
	latest := activities[0].OccurredAt
	for _, a := range activities[1:] {
		if a.OccurredAt.After(latest) {
			latest = a.OccurredAt
		}
	}
	d := now.Sub(latest)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / hoursPerDay)
}
