// Package scoring computes the composite quality score and compliance flags for validated records.
package scoring

import (
	"fmt"

	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Scorer maps validated physicochemical parameters to a 0-100 composite
// score and per-parameter compliance flags. Scoring is deterministic: the
// same four inputs always produce bit-identical output, independent of
// record order.
type Scorer struct {
	rules   config.ParameterRules
	weights config.Weights
}

// NewScorer constructs a Scorer from explicit configuration. Rules and
// weights are captured by value so later config mutation cannot leak in.
func NewScorer(rules config.ParameterRules, weights config.Weights) *Scorer {
	return &Scorer{rules: rules, weights: weights}
}

// Score computes the scored record for a valid input. Calling Score with an
// invalid record is a programming error in the pipeline wiring and panics;
// the orchestrator treats that as a fatal invariant violation, not a
// recoverable condition.
func (s *Scorer) Score(rec types.ValidatedRecord) types.ScoredRecord {
	if !rec.Valid {
		panic(fmt.Sprintf("scoring: invalid record passed to Score (batch=%s sample=%s reasons=%v)",
			rec.Raw.BatchID, rec.Raw.SampleID, rec.Reasons))
	}

	m := rec.Measurements

	moistureScore := bandSubScore(m.Moisture, s.rules.Moisture)
	phScore := bandSubScore(m.PH, s.rules.PH)
	diastaseScore := floorSubScore(m.DiastaseActivity, s.rules.Diastase)
	hmfScore := ceilingSubScore(m.HMF, s.rules.HMF)

	composite := moistureScore*s.weights.Moisture +
		phScore*s.weights.PH +
		diastaseScore*s.weights.Diastase +
		hmfScore*s.weights.HMF

	return types.ScoredRecord{
		ValidatedRecord: rec,
		QualityScore:    clamp(composite, 0, 100),
		Compliance: types.ComplianceFlags{
			MoistureOK: m.Moisture >= s.rules.Moisture.Min && m.Moisture <= s.rules.Moisture.Max,
			PHOK:       m.PH >= s.rules.PH.Min && m.PH <= s.rules.PH.Max,
			DiastaseOK: m.DiastaseActivity >= s.rules.Diastase.Floor,
			HMFOK:      m.HMF <= s.rules.HMF.Ceiling,
		},
	}
}

// bandSubScore scores distance from a target inside a tolerance band: 100
// at the target, falling linearly to 0 at the band edge on each side, 0
// outside the band.
func bandSubScore(value float64, rule config.BandRule) float64 {
	if value < rule.Min || value > rule.Max {
		return 0
	}
	var span float64
	if value >= rule.Target {
		span = rule.Max - rule.Target
	} else {
		span = rule.Target - rule.Min
	}
	if span == 0 {
		return 100
	}
	distance := value - rule.Target
	if distance < 0 {
		distance = -distance
	}
	return clamp(100*(1-distance/span), 0, 100)
}

// floorSubScore scores a minimum-is-better parameter: 100 at or above the
// floor, degrading linearly to 0 as the value approaches 0.
func floorSubScore(value float64, rule config.FloorRule) float64 {
	if value >= rule.Floor {
		return 100
	}
	if value <= 0 {
		return 0
	}
	return clamp(100*value/rule.Floor, 0, 100)
}

// ceilingSubScore scores a maximum-is-better parameter: 100 at or below the
// ceiling, degrading linearly to 0 over the configured falloff margin
// beyond it.
func ceilingSubScore(value float64, rule config.CeilingRule) float64 {
	if value <= rule.Ceiling {
		return 100
	}
	excess := value - rule.Ceiling
	if excess >= rule.FalloffMargin {
		return 0
	}
	return clamp(100*(1-excess/rule.FalloffMargin), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
