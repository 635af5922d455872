package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// syntheticSamples generates outcomes from a known logistic curve,
// deterministically thresholded so the fit has a clean signal.
func syntheticSamples(slope, intercept float64) []Sample {
	var samples []Sample
	for score := 0.0; score <= 100; score += 0.5 {
		p := 1 / (1 + math.Exp(-(slope*score + intercept)))
		outcome := 0
		if p > 0.5 {
			outcome = 1
		}
		samples = append(samples, Sample{RawScore: score, Outcome: outcome})
	}
	return samples
}

func TestFitLogisticRecoversDecisionBoundary(t *testing.T) {
	// True boundary at score 50 (slope 0.1, intercept -5).
	samples := syntheticSamples(0.1, -5)

	slope, intercept, err := FitLogistic(samples)
	require.NoError(t, err)
	assert.Greater(t, slope, 0.0)

	// Fitted boundary p=0.5 at x = -intercept/slope, near 50.
	boundary := -intercept / slope
	assert.InDelta(t, 50.0, boundary, 2.0)
}

func TestFitLogisticEmptyInput(t *testing.T) {
	_, _, err := FitLogistic(nil)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestFitLogisticOneClassDoesNotDiverge(t *testing.T) {
	allNegative := make([]Sample, 50)
	for i := range allNegative {
		allNegative[i] = Sample{RawScore: float64(i * 2), Outcome: 0}
	}

	slope, intercept, err := FitLogistic(allNegative)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(slope) || math.IsInf(slope, 0))
	assert.False(t, math.IsNaN(intercept) || math.IsInf(intercept, 0))

	// Extreme-slope conservative fit: monotone increasing, yet negligible
	// probability across the observed score range.
	assert.Equal(t, degenerateSlope, slope)
	p := Probability(90, models.CalibrationParams{Slope: slope, Intercept: intercept})
	assert.Less(t, p, 0.1)

	allPositive := make([]Sample, 50)
	for i := range allPositive {
		allPositive[i] = Sample{RawScore: float64(i * 2), Outcome: 1}
	}
	slope, intercept, err = FitLogistic(allPositive)
	require.NoError(t, err)
	p = Probability(10, models.CalibrationParams{Slope: slope, Intercept: intercept})
	assert.Greater(t, p, 0.9)
}

func TestProbabilityMonotonicForNonNegativeSlope(t *testing.T) {
	params := []models.CalibrationParams{
		DefaultParams(),
		{Slope: 0, Intercept: 1.2},
		{Slope: 0.2, Intercept: -8},
	}
	for _, p := range params {
		prev := -1.0
		for score := 0.0; score <= 100; score++ {
			got := Probability(score, p)
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	}
}

func TestProbabilityOpenInterval(t *testing.T) {
	// Extreme parameters must still stay inside (0,1).
	p := Probability(100, models.CalibrationParams{Slope: 100, Intercept: 100})
	assert.Less(t, p, 1.0)
	assert.Greater(t, p, 0.0)

	p = Probability(100, models.CalibrationParams{Slope: -100, Intercept: -100})
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestDefaultParamsValid(t *testing.T) {
	def := DefaultParams()
	assert.True(t, def.Valid())

	// Identity-leaning: midpoint score stays near 50%.
	mid := Probability(50, def)
	assert.InDelta(t, 0.5, mid, 0.05)
	assert.Less(t, Probability(0, def), 0.1)
	assert.Greater(t, Probability(100, def), 0.9)
}
