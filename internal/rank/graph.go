package rank

import (
	"math"
	"time"

	"github.com/onnwee/irisrank/internal/entity"
)

// edge is a weighted directed edge between batch node indexes.
type edge struct {
	to     int
	weight float64
}

// relationGraph is the adjacency built from a batch's connections.
// Node order follows the input entity order, which keeps every downstream
// computation deterministic for identical inputs.
type relationGraph struct {
	n         int
	out       [][]edge  // in-batch edges per node
	outTotal  []float64 // total outgoing weight per node, boundary edges included
	danglers  []int     // nodes with no outgoing weight at all
}

// buildGraph constructs the weighted directed graph for a batch. Edge weight
// is the connection strength (default 1.0) decayed by relationship age.
// Edges to ids outside the batch are boundary edges: they drain weight but
// propagate nothing back. Self-edges are ignored so a self-referencing
// connection can never feed a node its own rank.
func (p Params) buildGraph(entities []*entity.Entity, now time.Time) *relationGraph {
	index := make(map[string]int, len(entities))
	for i, e := range entities {
		index[e.ID] = i
	}

	g := &relationGraph{
		n:        len(entities),
		out:      make([][]edge, len(entities)),
		outTotal: make([]float64, len(entities)),
	}

	for i, e := range entities {
		for _, c := range e.Connections {
			w := p.edgeWeight(c, now)
			if w <= 0 {
				continue
			}
			j, inBatch := index[c.TargetID]
			if inBatch && j == i {
				continue // self-edge
			}
			g.outTotal[i] += w
			if inBatch {
				g.out[i] = append(g.out[i], edge{to: j, weight: w})
			}
		}
		if g.outTotal[i] == 0 {
			g.danglers = append(g.danglers, i)
		}
	}

	return g
}

// edgeWeight computes a connection's graph weight: strength multiplied by an
// exponential age decay over EstablishedAt. A connection without an explicit
// date is assumed DefaultConnectionAgeDays old rather than brand new.
func (p Params) edgeWeight(c entity.Connection, now time.Time) float64 {
	strength := 1.0
	if c.Strength != nil {
		strength = *c.Strength
	}
	if strength < 0 {
		strength = 0
	}

	ageDays := p.DefaultConnectionAgeDays
	if c.EstablishedAt != nil {
		ageDays = now.Sub(*c.EstablishedAt).Hours() / hoursPerDay
		if ageDays < 0 {
			ageDays = 0
		}
	}

	return strength * math.Exp2(-ageDays/p.ConnectionHalfLifeDays)
}

// pageRank runs bounded power iteration over the batch graph and returns one
// score per node, normalized to [0,1] by the batch maximum, along with the
// number of rounds run. The uniform teleport mass guarantees every node,
// connected or not, a strictly positive score. Mass flowing over boundary
// edges leaves the batch; dangling nodes redistribute their mass uniformly.
func (p Params) pageRank(g *relationGraph) ([]float64, int) {
	n := g.n
	if n == 0 {
		return nil, 0
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := range rank {
		rank[i] = uniform
	}

	rounds := 0
	for iter := 0; iter < p.MaxIterations; iter++ {
		rounds = iter + 1
		var danglingMass float64
		for _, i := range g.danglers {
			danglingMass += rank[i]
		}

		base := (1-p.Damping)*uniform + p.Damping*danglingMass*uniform
		for i := range next {
			next[i] = base
		}
		for i, edges := range g.out {
			if g.outTotal[i] == 0 {
				continue
			}
			share := p.Damping * rank[i] / g.outTotal[i]
			for _, e := range edges {
				next[e.to] += share * e.weight
			}
		}

		var delta float64
		for i := range rank {
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if delta < p.Epsilon {
			break
		}
	}

	// Normalize by the batch maximum. The teleport term keeps the minimum
	// strictly positive, so max-normalization preserves that floor.
	maxRank := 0.0
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	if maxRank == 0 {
		return rank, rounds
	}
	for i := range rank {
		rank[i] /= maxRank
	}
	return rank, rounds
}
