package rank

import (
	"math"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

const hoursPerDay = 24.0

// activityScore converts an entity's activity history into a bounded [0,1]
// engagement score. Each activity contributes an exponentially recency-decayed
// weight multiplied by its outcome multiplier; the sum is squashed through a
// saturating transform so no single entity with an enormous activity count
// dominates the comparison. Zero activities score 0, never an error.
func (p Params) activityScore(e *entity.Entity, now time.Time) float64 {
	if len(e.Activities) == 0 {
		return 0
	}

	var sum float64
	for _, a := range e.Activities {
		ageDays := now.Sub(a.OccurredAt).Hours() / hoursPerDay
		if ageDays < 0 {
			// Future-dated activities count as happening now.
			ageDays = 0
		}
		decay := math.Exp2(-ageDays / p.ActivityHalfLifeDays)
		sum += decay * weightForOutcome(a.Outcome)
	}

	return 1 - math.Exp(-p.ActivitySaturation*sum)
}

// windowedActivity sums the outcome-weighted activity falling inside
// [start, end). Used by the momentum calculator's finite-difference windows.
func windowedActivity(activities []entity.Activity, start, end time.Time) float64 {
	var sum float64
	for _, a := range activities {
		if (a.OccurredAt.Equal(start) || a.OccurredAt.After(start)) && a.OccurredAt.Before(end) {
			sum += weightForOutcome(a.Outcome)
		}
	}
	return sum
}
