package rank

import (
	"testing"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

// activitiesAt builds n positive activities spread across the given day
// offsets relative to testNow.
func activitiesAt(dayOffsets ...int) []entity.Activity {
	out := make([]entity.Activity, len(dayOffsets))
	for i, d := range dayOffsets {
		out[i] = entity.Activity{
			Type:       "call",
			OccurredAt: testNow.AddDate(0, 0, d).Add(-time.Hour),
			Outcome:    entity.OutcomePositive,
		}
	}
	return out
}

// TestMomentumNoActivities tests the unknown trend and staleness sentinel.
func TestMomentumNoActivities(t *testing.T) {
	p := DefaultParams()
	m := p.momentum(&entity.Entity{ID: "silent"}, testNow)

	if m.Trend != TrendUnknown {
		t.Errorf("expected unknown trend, got %s", m.Trend)
	}
	if m.DaysSinceLastActivity != p.NoActivitySentinelDays {
		t.Errorf("expected sentinel %d, got %d", p.NoActivitySentinelDays, m.DaysSinceLastActivity)
	}
	if m.Score != 0.5 {
		t.Errorf("unknown momentum should score the 0.5 midpoint, got %f", m.Score)
	}
}

// TestMomentumAccelerating tests that a burst of current-week activity with
// a quiet history classifies as accelerating.
func TestMomentumAccelerating(t *testing.T) {
	p := DefaultParams()
	e := &entity.Entity{
		ID:         "hot",
		Activities: activitiesAt(0, -1, -2, -3, -4),
	}

	m := p.momentum(e, testNow)
	if m.Trend != TrendAccelerating {
		t.Errorf("expected accelerating, got %s (v=%f a=%f)", m.Trend, m.Velocity, m.Acceleration)
	}
	if m.Velocity <= 0 {
		t.Errorf("velocity should be positive, got %f", m.Velocity)
	}
	if m.Score <= 0.5 {
		t.Errorf("positive momentum should score above the midpoint, got %f", m.Score)
	}
}

// TestMomentumStaleAtRisk tests that an entity active two months ago and
// silent since classifies as at risk, not unknown.
func TestMomentumStaleAtRisk(t *testing.T) {
	p := DefaultParams()
	e := &entity.Entity{
		ID:         "stale",
		Activities: activitiesAt(-60, -60, -61, -61, -62, -62, -63, -63, -64, -64),
	}

	m := p.momentum(e, testNow)
	if m.Trend != TrendAtRisk {
		t.Errorf("expected at_risk, got %s", m.Trend)
	}
	if m.DaysSinceLastActivity < 59 || m.DaysSinceLastActivity > 61 {
		t.Errorf("expected ~60 days since last activity, got %d", m.DaysSinceLastActivity)
	}
}

// TestMomentumChurning tests the combination of strongly negative velocity
// and deep staleness.
func TestMomentumChurning(t *testing.T) {
	p := DefaultParams()
	// Heavy activity in the previous window, then silence past the staleness
	// threshold. Use a wide velocity period so the drop and the staleness can
	// coexist.
	p.VelocityPeriodDays = 40

	e := &entity.Entity{
		ID:         "gone",
		Activities: activitiesAt(-45, -46, -47, -48, -49, -50, -51, -52, -53, -54),
	}

	m := p.momentum(e, testNow)
	if m.Trend != TrendChurning {
		t.Errorf("expected churning, got %s (v=%f days=%d)", m.Trend, m.Velocity, m.DaysSinceLastActivity)
	}
}

// TestMomentumSteady tests flat ongoing engagement.
func TestMomentumSteady(t *testing.T) {
	p := DefaultParams()
	// One activity per week across all three windows.
	e := &entity.Entity{
		ID:         "flat",
		Activities: activitiesAt(-1, -8, -15),
	}

	m := p.momentum(e, testNow)
	if m.Trend != TrendSteady {
		t.Errorf("expected steady, got %s (v=%f a=%f)", m.Trend, m.Velocity, m.Acceleration)
	}
	if m.Velocity != 0 {
		t.Errorf("expected zero velocity, got %f", m.Velocity)
	}
}

// TestMomentumScoreBounds tests the logistic transform bounds and midpoint.
func TestMomentumScoreBounds(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name         string
		velocity     float64
		acceleration float64
		wantAbove    float64
		wantBelow    float64
	}{
		{name: "zero movement is the midpoint", velocity: 0, acceleration: 0, wantAbove: 0.499, wantBelow: 0.501},
		{name: "strong positive", velocity: 3, acceleration: 1, wantAbove: 0.9, wantBelow: 1.0001},
		{name: "strong negative", velocity: -3, acceleration: -1, wantAbove: -0.0001, wantBelow: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.momentumScore(tt.velocity, tt.acceleration)
			if got <= tt.wantAbove-0.0001 || got >= tt.wantBelow {
				t.Errorf("score %f outside (%f, %f)", got, tt.wantAbove, tt.wantBelow)
			}
		})
	}
}
