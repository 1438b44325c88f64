package rank

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

// benchEntities builds n entities with a ring of connections and a realistic
// spread of recent activity.
func benchEntities(n int) []entity.Entity {
	entities := make([]entity.Entity, n)
	for i := range entities {
		e := entity.Entity{
			ID:   "bench-" + strconv.Itoa(i),
			Type: "Lead",
			Name: "Bench Entity " + strconv.Itoa(i),
		}
		for d := 0; d < (i%5)+1; d++ {
			e.Activities = append(e.Activities, entity.Activity{
				Type:       "call",
				OccurredAt: testNow.AddDate(0, 0, -d*3),
				Outcome:    entity.OutcomePositive,
			})
		}
		e.Connections = []entity.Connection{
			{TargetID: "bench-" + strconv.Itoa((i+1)%n), Strength: floatPtr(1.0), EstablishedAt: timePtr(testNow.AddDate(0, 0, -30))},
		}
		entities[i] = e
	}
	return entities
}

// BenchmarkActivityScore benchmarks the decayed activity calculation.
func BenchmarkActivityScore(b *testing.B) {
	p := DefaultParams()
	e := &entity.Entity{ID: "x", Activities: activitiesAt(0, -1, -2, -7, -14, -30, -60)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.activityScore(e, testNow)
	}
}

// BenchmarkMomentum benchmarks the windowed momentum classification.
func BenchmarkMomentum(b *testing.B) {
	p := DefaultParams()
	e := &entity.Entity{ID: "x", Activities: activitiesAt(0, -1, -2, -7, -14, -30, -60)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.momentum(e, testNow)
	}
}

// BenchmarkRelevanceScore benchmarks query token matching.
func BenchmarkRelevanceScore(b *testing.B) {
	p := DefaultParams()
	e := &entity.Entity{
		ID:   "x",
		Type: "Lead",
		Name: "Acme Rocket Supplies",
		Properties: entity.Properties{
			"email": entity.String("sales@acme.example"),
			"stage": entity.String("negotiation"),
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.relevanceScore(e, "acme negotiation")
	}
}

// BenchmarkPageRank100 benchmarks power iteration over a 100-node ring.
func BenchmarkPageRank100(b *testing.B) {
	p := DefaultParams()
	entities := benchEntities(100)
	refs := make([]*entity.Entity, len(entities))
	for i := range entities {
		refs[i] = &entities[i]
	}
	g := p.buildGraph(refs, testNow)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.pageRank(g)
	}
}

// BenchmarkScore100 benchmarks the full pipeline over 100 entities.
func BenchmarkScore100(b *testing.B) {
	s, err := NewService(DefaultWeights(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		b.Fatal(err)
	}
	req := ScoreRequest{Entities: benchEntities(100)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Score(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkScore1000 benchmarks the full pipeline at the entity cap.
func BenchmarkScore1000(b *testing.B) {
	s, err := NewService(DefaultWeights(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		b.Fatal(err)
	}
	req := ScoreRequest{Entities: benchEntities(entity.MaxEntities)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Score(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
