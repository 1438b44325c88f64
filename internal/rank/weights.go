// Package rank implements the entity importance and momentum ranking engine:
// PageRank-style network centrality over a time-decayed relationship graph,
// recency- and outcome-weighted activity scoring, finite-difference momentum
// detection with trend classification, query relevance scoring, and weighted
// aggregation into a single composite rank.
package rank

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Weights defines the relative contribution of each component score to the
// composite rank. Weights need not sum to 1.0; they are normalized at
// aggregation time.
type Weights struct {
	Network   float64 `json:"network"`   // graph centrality (default: 0.30)
	Activity  float64 `json:"activity"`  // recency-weighted engagement (default: 0.25)
	Relevance float64 `json:"relevance"` // query match (default: 0.20)
	Momentum  float64 `json:"momentum"`  // velocity/acceleration (default: 0.25)
}

// DefaultWeights returns the default ranking weight configuration.
//
// Composite formula: rank = (network*0.30 + activity*0.25 + relevance*0.20 + momentum*0.25) / sum
//   - Network centrality carries the largest share: well-connected entities
//     matter most in a relationship-driven pipeline.
//   - Activity and momentum split the engagement signal between level and slope.
//   - Relevance stays lowest so an unused query (neutral 0.5) cannot dominate.
func DefaultWeights() Weights {
	return Weights{
		Network:   0.30,
		Activity:  0.25,
		Relevance: 0.20,
		Momentum:  0.25,
	}
}

// Validate checks that every weight is non-negative and at least one is
// positive. Returns a ConfigError on the first violation.
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"network", w.Network},
		{"activity", w.Activity},
		{"relevance", w.Relevance},
		{"momentum", w.Momentum},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("weight must be non-negative, got %g", f.value)}
		}
	}
	if w.Network+w.Activity+w.Relevance+w.Momentum == 0 {
		return &ConfigError{Field: "weights", Reason: "at least one weight must be positive"}
	}
	return nil
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Network + w.Activity + w.Relevance + w.Momentum
}

// Vector returns the weights as a fixed-order array, the form the cache
// fingerprint hashes so that weight changes produce new cache keys.
func (w Weights) Vector() [4]float64 {
	return [4]float64{w.Network, w.Activity, w.Relevance, w.Momentum}
}

// WeightPatch is a partial weight update. Nil fields keep their current value.
type WeightPatch struct {
	Network   *float64 `json:"network,omitempty"`
	Activity  *float64 `json:"activity,omitempty"`
	Relevance *float64 `json:"relevance,omitempty"`
	Momentum  *float64 `json:"momentum,omitempty"`
}

// WeightStore holds the process-wide mutable weight configuration under a
// reader/writer discipline: many concurrent readers take snapshots, a single
// writer applies updates atomically. An in-flight ranking call reads one
// snapshot and never observes a torn update.
type WeightStore struct {
	mu sync.RWMutex
	w  Weights
}

// NewWeightStore creates a store seeded with the given weights.
// Invalid weights fall back to the defaults.
func NewWeightStore(w Weights) *WeightStore {
	if err := w.Validate(); err != nil {
		slog.Warn("invalid initial weights, using defaults", "error", err)
		w = DefaultWeights()
	}
	return &WeightStore{w: w}
}

// Snapshot returns the current weights. Safe for concurrent use.
func (s *WeightStore) Snapshot() Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w
}

// Update applies a partial patch to the current weights. The merged result is
// validated before it becomes visible; on error the stored weights are
// unchanged. Returns the weights now in effect.
func (s *WeightStore) Update(patch WeightPatch) (Weights, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.w
	if patch.Network != nil {
		next.Network = *patch.Network
	}
	if patch.Activity != nil {
		next.Activity = *patch.Activity
	}
	if patch.Relevance != nil {
		next.Relevance = *patch.Relevance
	}
	if patch.Momentum != nil {
		next.Momentum = *patch.Momentum
	}
	if err := next.Validate(); err != nil {
		return s.w, err
	}
	s.w = next
	return next, nil
}

// CalibrationConfig is the JSON structure of the weight calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// Missing or unreadable files degrade to the defaults with an error so the
// caller can decide whether to treat that as fatal. Partial configurations
// are merged over the defaults: only positive values override.
func LoadCalibration(filePath string) (Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read weight calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var cfg CalibrationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("failed to parse weight calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), cfg.Weights)
	if err := merged.Validate(); err != nil {
		slog.Warn("calibration file produced invalid weights, using defaults", "error", err)
		return DefaultWeights(), err
	}

	slog.Info("loaded weight calibration",
		"network", merged.Network,
		"activity", merged.Activity,
		"relevance", merged.Relevance,
		"momentum", merged.Momentum)
	return merged, nil
}

// MergeCalibration merges override weights onto a base configuration.
// Only positive override values are applied, allowing partial calibration
// files to leave the remaining weights at their defaults.
func MergeCalibration(base, override Weights) Weights {
	result := base
	if override.Network > 0 {
		result.Network = override.Network
	}
	if override.Activity > 0 {
		result.Activity = override.Activity
	}
	if override.Relevance > 0 {
		result.Relevance = override.Relevance
	}
	if override.Momentum > 0 {
		result.Momentum = override.Momentum
	}
	return result
}
