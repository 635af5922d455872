package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

func TestBuildBins(t *testing.T) {
	samples := []Sample{
		{RawScore: 5, Outcome: 0},
		{RawScore: 8, Outcome: 1},
		{RawScore: 55, Outcome: 1},
		{RawScore: 59.9, Outcome: 0},
		{RawScore: 100, Outcome: 1}, // upper edge clamps into the last bin
		{RawScore: 130, Outcome: 1}, // out of range clamps too
	}

	bins := BuildBins(samples, 10)
	require.Len(t, bins, 10)

	assert.Equal(t, 2, bins[0].Trials)
	assert.Equal(t, 1, bins[0].Successes)
	assert.Equal(t, 2, bins[5].Trials)
	assert.Equal(t, 1, bins[5].Successes)
	assert.Equal(t, 2, bins[9].Trials)
	assert.Equal(t, 2, bins[9].Successes)

	// Ordered, non-overlapping, covering 0-100.
	for i, b := range bins {
		assert.Equal(t, float64(i)*10, b.Lower)
		assert.Equal(t, float64(i+1)*10, b.Upper)
	}
}

func TestProbabilityWithInterval(t *testing.T) {
	params := models.CalibrationParams{
		Slope:     0.05,
		Intercept: -2.5,
		Bins: []models.CalibrationBin{
			{Lower: 0, Upper: 50, Successes: 5, Trials: 100},
			{Lower: 50, Upper: 100, Successes: 40, Trials: 80},
		},
	}

	iv := ProbabilityWithInterval(70, params, 0.95)
	assert.Equal(t, Probability(70, params), iv.Probability)
	assert.Equal(t, 80, iv.SampleSize)

	lo, hi := WilsonInterval(40, 80, 0.95)
	assert.Equal(t, lo, iv.Lower)
	assert.Equal(t, hi, iv.Upper)
}

func TestProbabilityWithIntervalBinBoundaries(t *testing.T) {
	params := models.CalibrationParams{
		Slope: 0.05, Intercept: -2.5,
		Bins: []models.CalibrationBin{
			{Lower: 0, Upper: 50, Successes: 1, Trials: 10},
			{Lower: 50, Upper: 100, Successes: 9, Trials: 10},
		},
	}

	// 50 belongs to the upper bin; 100 is included by the last bin.
	assert.Equal(t, 10, ProbabilityWithInterval(50, params, 0.95).SampleSize)
	assert.Equal(t, 10, ProbabilityWithInterval(100, params, 0.95).SampleSize)
}

func TestProbabilityWithIntervalNoBins(t *testing.T) {
	iv := ProbabilityWithInterval(42, DefaultParams(), 0.95)
	assert.Equal(t, 0.0, iv.Lower)
	assert.Equal(t, 1.0, iv.Upper)
	assert.Equal(t, 0, iv.SampleSize)
}
