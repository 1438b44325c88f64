package cache

import (
	"testing"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

func fpEntity(id string) entity.Entity {
	return entity.Entity{
		ID:   id,
		Type: "lead",
		Name: "Entity " + id,
		Activities: []entity.Activity{
			{Type: "call", OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), Outcome: entity.OutcomePositive},
		},
	}
}

var fpWeights = [4]float64{0.30, 0.25, 0.20, 0.25}

func TestFingerprint_Deterministic(t *testing.T) {
	rctx := entity.Context{Query: "renewal", EntityTypes: []string{"lead", "deal"}}
	entities := []entity.Entity{fpEntity("a"), fpEntity("b")}

	first, err := Fingerprint("caller-1", rctx, entities, 50, fpWeights)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := Fingerprint("caller-1", rctx, entities, 50, fpWeights)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first != second {
		t.Errorf("same request produced different keys: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(first))
	}
}

func TestFingerprint_TypeFilterOrderInsensitive(t *testing.T) {
	entities := []entity.Entity{fpEntity("a")}

	forward, err := Fingerprint("c", entity.Context{EntityTypes: []string{"lead", "deal"}}, entities, 10, fpWeights)
	if err != nil {
		t.Fatal(err)
	}
	reversed, err := Fingerprint("c", entity.Context{EntityTypes: []string{"deal", "lead"}}, entities, 10, fpWeights)
	if err != nil {
		t.Fatal(err)
	}
	if forward != reversed {
		t.Error("type filter order must not change the fingerprint")
	}
}

func TestFingerprint_SensitiveToInputs(t *testing.T) {
	base := func() (string, entity.Context, []entity.Entity, int) {
		return "caller-1", entity.Context{Query: "renewal"}, []entity.Entity{fpEntity("a")}, 50
	}

	caller, rctx, entities, limit := base()
	ref, err := Fingerprint(caller, rctx, entities, limit, fpWeights)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("caller", func(t *testing.T) {
		_, rctx, entities, limit := base()
		got, _ := Fingerprint("caller-2", rctx, entities, limit, fpWeights)
		if got == ref {
			t.Error("different caller must change the key")
		}
	})

	t.Run("query", func(t *testing.T) {
		caller, _, entities, limit := base()
		got, _ := Fingerprint(caller, entity.Context{Query: "churn"}, entities, limit, fpWeights)
		if got == ref {
			t.Error("different query must change the key")
		}
	})

	t.Run("limit", func(t *testing.T) {
		caller, rctx, entities, _ := base()
		got, _ := Fingerprint(caller, rctx, entities, 10, fpWeights)
		if got == ref {
			t.Error("different limit must change the key")
		}
	})

	t.Run("entity content", func(t *testing.T) {
		caller, rctx, entities, limit := base()
		entities[0].Activities[0].Outcome = entity.OutcomeNegative
		got, _ := Fingerprint(caller, rctx, entities, limit, fpWeights)
		if got == ref {
			t.Error("changed activity outcome must change the key")
		}
	})

	t.Run("weights", func(t *testing.T) {
		caller, rctx, entities, limit := base()
		got, _ := Fingerprint(caller, rctx, entities, limit, [4]float64{1, 0, 0, 0})
		if got == ref {
			t.Error("different weights must change the key")
		}
	})
}
