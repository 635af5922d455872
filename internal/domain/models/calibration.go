package models

import "math"

// CalibrationBin tracks outcome frequency for a raw-score sub-range.
// Bins are ordered and non-overlapping; [Lower, Upper) except the last,
// which is inclusive of its upper bound.
type CalibrationBin struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Successes int     `json:"successes"`
	Trials    int     `json:"trials"`
}

// Contains reports whether score falls inside the bin, treating the bin as
// half-open unless last is set.
func (b CalibrationBin) Contains(score float64, last bool) bool {
	if score < b.Lower {
		return false
	}
	if last {
		return score <= b.Upper
	}
	return score < b.Upper
}

// CalibrationParams is an immutable logistic mapping from raw score to
// probability, plus the bin table used for interval estimation. Replaced
// wholesale by each successful refit, never mutated in place.
type CalibrationParams struct {
	Slope       float64          `json:"slope"`
	Intercept   float64          `json:"intercept"`
	Bins        []CalibrationBin `json:"bins"`
	FittedAt    int64            `json:"fitted_at"` // ms epoch, 0 for the default seed
	SampleCount int              `json:"sample_count"`
}

// Valid reports whether the parameter set is safe to use. Non-finite slope or
// intercept marks a corrupt load and must never reach the scoring engine.
func (p *CalibrationParams) Valid() bool {
	if p == nil {
		return false
	}
	return !math.IsNaN(p.Slope) && !math.IsInf(p.Slope, 0) &&
		!math.IsNaN(p.Intercept) && !math.IsInf(p.Intercept, 0)
}

// CalibrationReport describes the outcome of one periodic refit, for audit.
type CalibrationReport struct {
	Timestamp   int64              `json:"timestamp"` // ms epoch
	SampleCount int                `json:"sample_count"`
	Skipped     bool               `json:"skipped"`
	Reason      string             `json:"reason,omitempty"`
	Params      *CalibrationParams `json:"params,omitempty"`
}
