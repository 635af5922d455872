package calibration

import (
	"errors"
	"math"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// ErrInsufficientSamples means a fit was requested with too little history.
var ErrInsufficientSamples = errors.New("calibration: insufficient samples")

// Sample pairs a raw risk score with its observed binary outcome.
type Sample struct {
	RawScore float64
	Outcome  int // 1 if a cascade followed within the outcome horizon
}

// probability floor/ceiling: calibrated output stays in the open interval.
const probEpsilon = 1e-9

// slope used for one-class fits, far steeper than anything IRLS produces
// on mixed samples (typically well under 0.2 on the 0-100 score range).
const degenerateSlope = 1.0

// DefaultParams is the documented fallback used before any fit has succeeded:
// a gentle identity-leaning slope over the 0-100 score range that maps
// score 50 to a hair under 50% and never saturates.
func DefaultParams() models.CalibrationParams {
	return models.CalibrationParams{
		Slope:     0.05,
		Intercept: -2.5,
	}
}

// FitLogistic fits P(outcome=1|x) = sigmoid(slope*x + intercept) by maximum
// likelihood using Newton-Raphson (IRLS). One-class inputs do not diverge:
// they yield a conservative extreme-slope fit anchored at the
// Laplace-smoothed base rate.
func FitLogistic(samples []Sample) (slope, intercept float64, err error) {
	if len(samples) == 0 {
		return 0, 0, ErrInsufficientSamples
	}

	positives := 0
	for _, s := range samples {
		positives += s.Outcome
	}
	if positives == 0 || positives == len(samples) {
		// Degenerate: the MLE runs off to infinity. Return a finite
		// extreme-slope fit, still monotone increasing, anchored so the
		// smoothed base rate is reached only at the edge of the observed
		// score range: all-negative input stays near zero below its top
		// score, all-positive input stays near one above its bottom score.
		rate := (float64(positives) + 1) / (float64(len(samples)) + 2)
		minX, maxX := samples[0].RawScore, samples[0].RawScore
		for _, s := range samples[1:] {
			minX = math.Min(minX, s.RawScore)
			maxX = math.Max(maxX, s.RawScore)
		}
		anchor := maxX
		if positives > 0 {
			anchor = minX
		}
		return degenerateSlope, math.Log(rate/(1-rate)) - degenerateSlope*anchor, nil
	}

	// Seed intercept at the observed log-odds.
	base := float64(positives) / float64(len(samples))
	b0 := math.Log(base / (1 - base))
	b1 := 0.0

	const (
		maxIter = 100
		tol     = 1e-9
		ridge   = 1e-6 // keeps the Hessian invertible on near-separable data
		maxStep = 10.0
	)

	for iter := 0; iter < maxIter; iter++ {
		var g0, g1, h00, h01, h11 float64
		for _, s := range samples {
			p := sigmoid(b0 + b1*s.RawScore)
			w := p * (1 - p)
			r := float64(s.Outcome) - p
			g0 += r
			g1 += r * s.RawScore
			h00 += w
			h01 += w * s.RawScore
			h11 += w * s.RawScore * s.RawScore
		}
		h00 += ridge
		h11 += ridge

		det := h00*h11 - h01*h01
		if det <= 0 || !isFinite(det) {
			break
		}
		d0 := (h11*g0 - h01*g1) / det
		d1 := (h00*g1 - h01*g0) / det
		d0 = clampStep(d0, maxStep)
		d1 = clampStep(d1, maxStep)

		b0 += d0
		b1 += d1

		if !isFinite(b0) || !isFinite(b1) {
			return 0, 0, errors.New("calibration: fit diverged")
		}
		if math.Abs(d0)+math.Abs(d1) < tol {
			break
		}
	}

	return b1, b0, nil
}

// Probability maps a raw score through the logistic model, clamped to the
// open interval (0,1) so consumers never see an absolute claim.
func Probability(rawScore float64, params models.CalibrationParams) float64 {
	p := sigmoid(params.Slope*rawScore + params.Intercept)
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}

func sigmoid(x float64) float64 {
	// Split to avoid overflow in Exp for large |x|.
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func clampStep(d, limit float64) float64 {
	if d > limit {
		return limit
	}
	if d < -limit {
		return -limit
	}
	return d
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
