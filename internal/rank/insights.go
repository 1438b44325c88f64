package rank

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Insight recommendation thresholds.
const (
	churnAlertShare   = 0.10 // share of churning entities that warrants immediate outreach
	atRiskAlertShare  = 0.25 // share of at-risk entities that warrants re-engagement
	lowEngagementMean = 0.30 // mean rank below this flags a cold pipeline
	strongMomentumMin = 0.60 // mean momentum above this flags capacity to push
)

// Insights runs a full, unlimited ranking pass and returns aggregate
// statistics plus rule-based recommendations derived from fixed thresholds
// on the distribution.
func (s *Service) Insights(ctx context.Context, req ScoreRequest) (*Insights, error) {
	s.insightsCalls.Add(1)
	s.incMetric("insights")

	full := req
	full.Limit = len(req.Entities)
	results, err := s.Score(ctx, full)
	if err != nil {
		s.errMetric("insights")
		return nil, err
	}

	ranks := make([]float64, len(results))
	momenta := make([]float64, len(results))
	byTrend := make(map[Trend]int)
	byType := make(map[string]int)
	for i, r := range results {
		ranks[i] = r.Rank
		momenta[i] = r.Momentum.Score
		byTrend[r.Momentum.Trend]++
		byType[r.EntityType]++
	}

	summary := InsightsSummary{TotalEntities: len(results)}
	if len(results) > 0 {
		summary.MeanRank = stat.Mean(ranks, nil)
		summary.MeanMomentum = stat.Mean(momenta, nil)
		summary.RankStdDev = stat.StdDev(ranks, nil)
	}

	return &Insights{
		Summary: summary,
		Distribution: InsightsDistribution{
			ByTrend: byTrend,
			ByType:  byType,
		},
		Recommendations: recommendations(summary, byTrend),
	}, nil
}

// recommendations derives deterministic, rule-based guidance strings from the
// trend distribution and summary statistics.
func recommendations(summary InsightsSummary, byTrend map[Trend]int) []string {
	var out []string
	total := summary.TotalEntities
	if total == 0 {
		return out
	}

	churning := byTrend[TrendChurning]
	atRisk := byTrend[TrendAtRisk]
	accelerating := byTrend[TrendAccelerating]

	if churning > 0 && float64(churning)/float64(total) >= churnAlertShare {
		out = append(out, fmt.Sprintf("%d entities churning: immediate outreach needed", churning))
	}
	if atRisk > 0 && float64(atRisk)/float64(total) >= atRiskAlertShare {
		out = append(out, fmt.Sprintf("%d entities at risk: schedule re-engagement within the week", atRisk))
	}
	if summary.MeanRank < lowEngagementMean {
		out = append(out, "overall pipeline engagement is low: review outreach cadence")
	}
	if summary.MeanMomentum >= strongMomentumMin && accelerating > 0 {
		out = append(out, fmt.Sprintf("%d entities accelerating: prioritize follow-ups while momentum holds", accelerating))
	}
	if len(out) == 0 {
		out = append(out, "portfolio is stable, no immediate action required")
	}
	return out
}
