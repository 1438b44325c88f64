package rank

import (
	"testing"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

// TestActivityScoreEmpty tests that zero activities score 0, never an error.
func TestActivityScoreEmpty(t *testing.T) {
	p := DefaultParams()
	e := &entity.Entity{ID: "empty"}
	if got := p.activityScore(e, testNow); got != 0 {
		t.Errorf("entity with no activities should score 0, got %f", got)
	}
}

// TestActivityScoreRecency tests that recent activity outweighs old activity.
func TestActivityScoreRecency(t *testing.T) {
	p := DefaultParams()

	recent := &entity.Entity{ID: "recent", Activities: []entity.Activity{
		{Type: "call", OccurredAt: testNow.AddDate(0, 0, -1), Outcome: entity.OutcomePositive},
	}}
	old := &entity.Entity{ID: "old", Activities: []entity.Activity{
		{Type: "call", OccurredAt: testNow.AddDate(0, 0, -120), Outcome: entity.OutcomePositive},
	}}

	rs := p.activityScore(recent, testNow)
	os := p.activityScore(old, testNow)
	if rs <= os {
		t.Errorf("recent activity (%f) should outscore old activity (%f)", rs, os)
	}
}

// TestActivityScoreOutcomeOrdering tests positive > neutral > negative, with
// negative still counting as engagement.
func TestActivityScoreOutcomeOrdering(t *testing.T) {
	p := DefaultParams()
	at := testNow.AddDate(0, 0, -2)

	score := func(o entity.Outcome) float64 {
		return p.activityScore(&entity.Entity{
			ID:         "x",
			Activities: []entity.Activity{{Type: "call", OccurredAt: at, Outcome: o}},
		}, testNow)
	}

	pos := score(entity.OutcomePositive)
	neu := score(entity.OutcomeNeutral)
	neg := score(entity.OutcomeNegative)

	if !(pos > neu && neu > neg) {
		t.Errorf("expected positive > neutral > negative, got %f / %f / %f", pos, neu, neg)
	}
	if neg <= 0 {
		t.Errorf("negative outcomes still count as engagement, got %f", neg)
	}
}

// TestActivityScoreSaturation tests that the score stays bounded no matter
// how many activities pile up.
func TestActivityScoreSaturation(t *testing.T) {
	p := DefaultParams()

	activities := make([]entity.Activity, 500)
	for i := range activities {
		activities[i] = entity.Activity{
			Type:       "email",
			OccurredAt: testNow.Add(-time.Duration(i) * time.Hour),
			Outcome:    entity.OutcomePositive,
		}
	}
	e := &entity.Entity{ID: "busy", Activities: activities}

	got := p.activityScore(e, testNow)
	if got <= 0 || got > 1 {
		t.Errorf("score out of bounds: %f", got)
	}
	if got < 0.99 {
		t.Errorf("500 recent activities should saturate near 1.0, got %f", got)
	}
}

// TestActivityScoreFutureDated tests that future timestamps are clamped
// rather than amplified.
func TestActivityScoreFutureDated(t *testing.T) {
	p := DefaultParams()

	future := &entity.Entity{ID: "f", Activities: []entity.Activity{
		{Type: "meeting", OccurredAt: testNow.AddDate(0, 0, 7), Outcome: entity.OutcomePositive},
	}}
	now := &entity.Entity{ID: "n", Activities: []entity.Activity{
		{Type: "meeting", OccurredAt: testNow, Outcome: entity.OutcomePositive},
	}}

	if p.activityScore(future, testNow) != p.activityScore(now, testNow) {
		t.Error("future-dated activity should count as happening now")
	}
}
