// Package nextsteps turns ranking results into concrete follow-up
// suggestions. The default generator is rule-based and fully deterministic;
// the Generator interface leaves room for plugging in an external
// suggestion service without touching the handlers.
package nextsteps

import (
	"context"
	"fmt"

	"github.com/onnwee/irisrank/internal/rank"
)

// Suggestion is the set of recommended follow-ups for one entity.
type Suggestion struct {
	EntityID   string   `json:"entity_id"`
	EntityName string   `json:"entity_name"`
	Priority   string   `json:"priority"`
	Steps      []string `json:"steps"`
}

// Generator produces next-step suggestions for ranked entities.
type Generator interface {
	Suggest(ctx context.Context, results []rank.Result) ([]Suggestion, error)
}

// RuleBased derives suggestions from the trend classification and component
// scores. Identical inputs always yield identical output.
type RuleBased struct{}

// NewRuleBased creates the default rule-based generator.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Priority buckets, from most to least urgent.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Suggest implements Generator.
func (g *RuleBased) Suggest(ctx context.Context, results []rank.Result) ([]Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(results))
	for i := range results {
		out = append(out, suggestOne(&results[i]))
	}
	return out, nil
}

func suggestOne(r *rank.Result) Suggestion {
	s := Suggestion{
		EntityID:   r.EntityID,
		EntityName: r.EntityName,
	}

	switch r.Momentum.Trend {
	case rank.TrendChurning:
		s.Priority = PriorityUrgent
		s.Steps = append(s.Steps,
			fmt.Sprintf("call today: no activity in %d days and engagement was already declining", r.Momentum.DaysSinceLastActivity),
			"escalate to the account owner for a save play",
		)
	case rank.TrendAtRisk:
		s.Priority = PriorityHigh
		s.Steps = append(s.Steps,
			fmt.Sprintf("re-engage within the week: last touch was %d days ago", r.Momentum.DaysSinceLastActivity),
		)
		if r.ActivityScore > 0.5 {
			s.Steps = append(s.Steps, "reference the earlier engagement streak when reaching out")
		}
	case rank.TrendAccelerating:
		s.Priority = PriorityHigh
		s.Steps = append(s.Steps,
			"strike while engagement is climbing: propose the next milestone now",
		)
		if r.NetworkScore >= 0.7 {
			s.Steps = append(s.Steps, "ask for introductions through their network connections")
		}
	case rank.TrendSteady:
		s.Priority = PriorityNormal
		s.Steps = append(s.Steps, "maintain the current cadence and watch for a momentum shift")
	default:
		s.Priority = PriorityLow
		s.Steps = append(s.Steps, "no activity on record: qualify this entity before investing time")
	}

	if r.RelevanceScore == 1.0 && r.Rank >= 0.7 {
		s.Steps = append(s.Steps, "flag as a top match for the current search")
	}

	return s
}
