package rank

import "fmt"

// aggregate combines the four component scores into the composite rank using
// the supplied weight snapshot. Weights are normalized here so callers may
// pass non-normalized configurations.
func aggregate(w Weights, network, activity, relevance, momentumScore float64) float64 {
	sum := w.Sum()
	if sum == 0 {
		return 0
	}
	rank := (w.Network*network +
		w.Activity*activity +
		w.Relevance*relevance +
		w.Momentum*momentumScore) / sum
	return clamp01(rank)
}

// explain produces the ordered, deterministic explanation strings for a
// result. Template-based text synthesis only; identical inputs always yield
// identical output.
func explain(r *Result, hasQuery bool) []string {
	var out []string

	switch {
	case r.NetworkScore >= 0.7:
		out = append(out, "high network centrality")
	case r.NetworkScore <= 0.2:
		out = append(out, "peripheral position in relationship graph")
	}

	switch {
	case r.ActivityScore >= 0.7:
		out = append(out, "strong recent engagement")
	case r.ActivityScore == 0:
		out = append(out, "no recorded activity")
	}

	switch r.Momentum.Trend {
	case TrendAccelerating:
		out = append(out, fmt.Sprintf("engagement accelerating (%+.2f activity/day)", r.Momentum.Velocity))
	case TrendChurning:
		out = append(out, fmt.Sprintf("engagement collapsed, no activity in %d days", r.Momentum.DaysSinceLastActivity))
	case TrendAtRisk:
		if r.Momentum.Velocity < 0 {
			out = append(out, fmt.Sprintf("engagement declining (%.2f activity/day)", r.Momentum.Velocity))
		} else {
			out = append(out, fmt.Sprintf("no recent activity in %d days", r.Momentum.DaysSinceLastActivity))
		}
	}

	if hasQuery {
		switch {
		case r.RelevanceScore >= 0.8:
			out = append(out, "strong match for query")
		case r.RelevanceScore == 0:
			out = append(out, "no match for query")
		}
	}

	if len(out) == 0 {
		out = append(out, "balanced signals across all factors")
	}
	return out
}

// riskFactors synthesizes the risk explanation strings for an at-risk result.
func riskFactors(r *Result, inactivityThresholdDays int) []string {
	var out []string

	if r.Momentum.DaysSinceLastActivity >= inactivityThresholdDays {
		out = append(out, fmt.Sprintf("inactive for %d days (threshold %d)",
			r.Momentum.DaysSinceLastActivity, inactivityThresholdDays))
	}
	if r.Momentum.Velocity < 0 {
		out = append(out, fmt.Sprintf("engagement velocity negative (%.2f activity/day)", r.Momentum.Velocity))
	}
	if r.Momentum.Trend == TrendChurning {
		out = append(out, "classified as churning")
	}
	if r.ActivityScore < 0.1 {
		out = append(out, "near-zero engagement score")
	}
	if len(out) == 0 {
		out = append(out, "declining engagement trend")
	}
	return out
}

// riskLevel buckets an at-risk result by severity.
func riskLevel(r *Result, inactivityThresholdDays int) RiskLevel {
	switch {
	case r.Momentum.Trend == TrendChurning,
		r.Momentum.DaysSinceLastActivity >= 2*inactivityThresholdDays:
		return RiskHigh
	case r.Momentum.DaysSinceLastActivity >= inactivityThresholdDays:
		return RiskMedium
	default:
		return RiskLow
	}
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
