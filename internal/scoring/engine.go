package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"leadscore/internal/model"
)

var (
	// ErrConfig marks a malformed factor configuration (caller error)
	ErrConfig = errors.New("invalid scoring configuration")

	// ErrInternal marks an unexpected fault inside the engine itself
	ErrInternal = errors.New("internal scoring fault")
)

// FactorOverride adjusts one catalog factor for a single scoring call.
// A zero weight or Enabled=false removes the factor from the call.
type FactorOverride struct {
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

// Result is the immutable output of one scoring call
type Result struct {
	Score      int                   `json:"score"`
	Factors    []model.ScoringFactor `json:"factors"`
	Confidence float64               `json:"confidence"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Engine computes lead quality scores from a fixed factor catalog.
// It is stateless: every call is independent and derivable from its
// inputs, so a single Engine is safe for concurrent use.
type Engine struct {
	catalog Catalog
	now     func() time.Time
}

// NewEngine creates an engine over the given catalog
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog, now: time.Now}
}

// WithClock returns a copy of the engine using the given clock.
// Tests use this to pin Result.Timestamp.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	return &Engine{catalog: e.catalog, now: now}
}

// Catalog returns the engine's factor catalog
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Score computes the weighted quality score for a lead. campaign may be
// nil; overrides may be nil to use catalog defaults. Missing or empty
// lead fields are low-scoring inputs, never errors. A malformed
// override (unknown factor, negative weight) fails with ErrConfig
// before any factor is computed.
func (e *Engine) Score(lead *model.Lead, campaign *model.Campaign, overrides map[string]FactorOverride) (*Result, error) {
	if lead == nil {
		return nil, fmt.Errorf("%w: nil lead snapshot", ErrInternal)
	}
	if err := e.validateOverrides(overrides); err != nil {
		return nil, err
	}

	in := Input{Lead: lead, Campaign: campaign}
	ts := e.now()

	var factors []model.ScoringFactor
	for _, spec := range e.catalog {
		weight := spec.Weight
		if ov, ok := overrides[spec.Name]; ok {
			if !ov.Enabled {
				continue
			}
			weight = ov.Weight
		}
		if weight == 0 {
			continue
		}
		if spec.Compute == nil {
			return nil, fmt.Errorf("%w: factor %q has no compute rule", ErrInternal, spec.Name)
		}

		value := clampInt(spec.Compute(in), 0, 100)
		factors = append(factors, model.ScoringFactor{
			Name:        spec.Name,
			Value:       value,
			Weight:      weight,
			Description: spec.Description,
			Timestamp:   ts,
		})
	}

	score, confidence := Aggregate(factors)
	return &Result{
		Score:      score,
		Factors:    factors,
		Confidence: confidence,
		Timestamp:  ts,
	}, nil
}

func (e *Engine) validateOverrides(overrides map[string]FactorOverride) error {
	for name, ov := range overrides {
		if !e.catalog.Contains(name) {
			return fmt.Errorf("%w: unknown factor %q", ErrConfig, name)
		}
		if ov.Weight < 0 {
			return fmt.Errorf("%w: negative weight %.2f for factor %q", ErrConfig, ov.Weight, name)
		}
	}
	return nil
}

// Aggregate folds computed factors into the final score and confidence.
// The confidence formula multiplies the fraction of factors with a
// nonzero signal by the total active weight without renormalizing for
// disabled subsets; this mirrors the shipped behavior and stays as is.
// Exported so score history can re-derive past scores from stored
// factor snapshots.
func Aggregate(factors []model.ScoringFactor) (int, float64) {
	if len(factors) == 0 {
		return 0, 0
	}

	totalWeight := 0.0
	weightedSum := 0.0
	nonzero := 0
	for _, f := range factors {
		totalWeight += f.Weight
		weightedSum += float64(f.Value) * f.Weight
		if f.Value > 0 {
			nonzero++
		}
	}

	score := 0
	if totalWeight > 0 {
		score = int(math.Round(weightedSum / totalWeight))
	}

	confidence := (float64(nonzero) / float64(len(factors))) * totalWeight
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	return score, confidence
}

// OverridesFromConfig converts a campaign's stored scoring config into
// engine overrides. A disabled config or empty factor list yields nil,
// meaning catalog defaults.
func OverridesFromConfig(cfg model.ScoringConfig) map[string]FactorOverride {
	if !cfg.Enabled || len(cfg.Factors) == 0 {
		return nil
	}
	overrides := make(map[string]FactorOverride, len(cfg.Factors))
	for _, f := range cfg.Factors {
		overrides[f.Name] = FactorOverride{Weight: f.Weight, Enabled: f.Enabled}
	}
	return overrides
}
