package nextsteps

import (
	"context"
	"reflect"
	"testing"

	"github.com/onnwee/irisrank/internal/rank"
)

func result(id string, trend rank.Trend, days int) rank.Result {
	return rank.Result{
		EntityID:   id,
		EntityName: "Entity " + id,
		Momentum: rank.Momentum{
			Trend:                 trend,
			DaysSinceLastActivity: days,
		},
	}
}

func TestSuggestPriorities(t *testing.T) {
	tests := []struct {
		name         string
		trend        rank.Trend
		wantPriority string
	}{
		{name: "churning is urgent", trend: rank.TrendChurning, wantPriority: PriorityUrgent},
		{name: "at risk is high", trend: rank.TrendAtRisk, wantPriority: PriorityHigh},
		{name: "accelerating is high", trend: rank.TrendAccelerating, wantPriority: PriorityHigh},
		{name: "steady is normal", trend: rank.TrendSteady, wantPriority: PriorityNormal},
		{name: "unknown is low", trend: rank.TrendUnknown, wantPriority: PriorityLow},
	}

	g := NewRuleBased()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestions, err := g.Suggest(context.Background(), []rank.Result{result("x", tt.trend, 40)})
			if err != nil {
				t.Fatalf("Suggest: %v", err)
			}
			if len(suggestions) != 1 {
				t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
			}
			if suggestions[0].Priority != tt.wantPriority {
				t.Errorf("priority = %s, want %s", suggestions[0].Priority, tt.wantPriority)
			}
			if len(suggestions[0].Steps) == 0 {
				t.Error("expected at least one step")
			}
		})
	}
}

func TestSuggestDeterministic(t *testing.T) {
	g := NewRuleBased()
	input := []rank.Result{
		result("a", rank.TrendChurning, 60),
		result("b", rank.TrendAccelerating, 1),
	}

	first, err := g.Suggest(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Suggest(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("suggestions should be deterministic for identical input")
	}
}

func TestSuggestNetworkIntroduction(t *testing.T) {
	g := NewRuleBased()
	r := result("hub", rank.TrendAccelerating, 1)
	r.NetworkScore = 0.9

	suggestions, err := g.Suggest(context.Background(), []rank.Result{r})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, step := range suggestions[0].Steps {
		if step == "ask for introductions through their network connections" {
			found = true
		}
	}
	if !found {
		t.Error("well-connected accelerating entity should get an introduction step")
	}
}

func TestSuggestCancelledContext(t *testing.T) {
	g := NewRuleBased()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Suggest(ctx, []rank.Result{result("x", rank.TrendSteady, 1)}); err == nil {
		t.Error("expected context error")
	}
}
