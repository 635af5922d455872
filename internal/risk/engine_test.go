package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/calibration"
	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), calibration.NewStore(), nil)
}

const scoredAt = int64(1700000000000)

func TestScoreSkipsEmptySnapshot(t *testing.T) {
	e := newTestEngine()
	assert.Nil(t, e.Score(nil, scoredAt))
	assert.Nil(t, e.Score(&models.AggregatedSnapshot{Symbol: "BTCUSDT"}, scoredAt))
}

func TestScoreDeterministic(t *testing.T) {
	// Stateless plugins only, so repeated scoring sees identical state.
	cfg := DefaultConfig()
	e := NewEngineWithPlugins(cfg, calibration.NewStore(), nil,
		NewFundingExtremityFactor(cfg),
		NewPriceDispersionFactor(cfg),
		NewLiquidationProximityFactor(cfg),
	)

	s := snapshot("BTCUSDT", 0.004, []float64{42000, 42100, 41950}, []float64{2e9, 1e9, 0.5e9})
	a := e.Score(s, scoredAt)
	b := e.Score(s, scoredAt)
	require.NotNil(t, a)
	assert.Equal(t, a, b)
}

func TestScoreBounds(t *testing.T) {
	e := newTestEngine()

	extreme := snapshot("BTCUSDT", 0.05, []float64{100, 110, 90}, []float64{9e9, 0.1e9, 0.1e9})
	r := e.Score(extreme, scoredAt)
	require.NotNil(t, r)
	assert.GreaterOrEqual(t, r.RiskScore, 0)
	assert.LessOrEqual(t, r.RiskScore, 100)
	assert.Equal(t, LevelFor(r.RiskScore), r.RiskLevel)
	assert.Equal(t, scoredAt, r.Timestamp)
}

func TestScoreRenormalizesOverComputableFactors(t *testing.T) {
	e := newTestEngine()

	// Single exchange, no history: dispersion and volatility cannot compute.
	s := snapshot("BTCUSDT", 0.01, []float64{42000}, []float64{1e9})
	r := e.Score(s, scoredAt)
	require.NotNil(t, r)

	names := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		names = append(names, f.Name)
	}
	assert.NotContains(t, names, FactorDispersion)
	assert.NotContains(t, names, FactorVolatility)
	assert.Contains(t, names, FactorFunding)

	// Funding saturated, full concentration: missing factors must not drag
	// the score down.
	assert.Greater(t, r.RiskScore, 80)
}

func TestPredictionEligibility(t *testing.T) {
	e := newTestEngine()

	// Low risk: no prediction.
	calm := snapshot("BTCUSDT", 0.0001, []float64{42000, 42001}, []float64{1e9, 1e9})
	r := e.Score(calm, scoredAt)
	require.NotNil(t, r)
	assert.Nil(t, r.Prediction)

	// Elevated risk with crowded longs: long squeeze call.
	hot := snapshot("BTCUSDT", 0.008, []float64{42000, 42100}, []float64{5e9, 1e9})
	r = e.Score(hot, scoredAt)
	require.NotNil(t, r)
	require.NotNil(t, r.Prediction)
	assert.Equal(t, models.DirectionLongSqueeze, r.Prediction.Direction)
	assert.Greater(t, r.Prediction.Probability, 0.0)
	assert.Less(t, r.Prediction.Probability, 1.0)
	assert.Less(t, r.Prediction.TriggerPrice, 42100.0, "long squeeze triggers below mark")
	assert.Greater(t, r.Prediction.EstimatedImpactUSD, 0.0)
	assert.NotEmpty(t, r.Prediction.TimeWindow)
}

func TestPredictionDirectionFromFundingSign(t *testing.T) {
	e := newTestEngine()

	short := snapshot("ETHUSDT", -0.009, []float64{2200, 2210}, []float64{3e9, 1e9})
	r := e.Score(short, scoredAt)
	require.NotNil(t, r)
	require.NotNil(t, r.Prediction)
	assert.Equal(t, models.DirectionShortSqueeze, r.Prediction.Direction)
	assert.Greater(t, r.Prediction.TriggerPrice, 2210.0, "short squeeze triggers above mark")
}

func TestPredictionAmbiguousSignSuppressed(t *testing.T) {
	cfg := DefaultConfig()
	// Force eligibility via concentration alone, with exactly zero funding.
	e := NewEngineWithPlugins(cfg, calibration.NewStore(), nil,
		NewFundingExtremityFactor(cfg),
		NewOpenInterestFactor(cfg),
		NewLiquidationProximityFactor(cfg),
	)

	s := snapshot("BTCUSDT", 0, []float64{42000}, []float64{1e9})
	r := e.Score(s, scoredAt)
	require.NotNil(t, r)
	assert.GreaterOrEqual(t, r.RawScore, cfg.PredictionThreshold)
	assert.Nil(t, r.Prediction, "zero funding gives no direction")
}

func TestPredictionUsesCurrentCalibration(t *testing.T) {
	store := calibration.NewStore()
	e := NewEngine(DefaultConfig(), store, nil)

	hot := snapshot("BTCUSDT", 0.008, []float64{42000, 42100}, []float64{5e9, 1e9})
	before := e.Score(hot, scoredAt)
	require.NotNil(t, before.Prediction)

	// A hot-swapped parameter set is picked up on the next scoring call.
	require.NoError(t, store.Publish(&models.CalibrationParams{Slope: 0.1, Intercept: -9, SampleCount: 100}))
	after := e.Score(hot, scoredAt)
	require.NotNil(t, after.Prediction)
	assert.NotEqual(t, before.Prediction.Probability, after.Prediction.Probability)
}

func TestRegisterCustomPlugin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights["constant"] = 1
	e := NewEngineWithPlugins(cfg, calibration.NewStore(), nil, constantFactor{})

	s := snapshot("BTCUSDT", 0, []float64{42000}, []float64{1e9})
	r := e.Score(s, scoredAt)
	require.NotNil(t, r)
	assert.Equal(t, 42, r.RiskScore)
	assert.Equal(t, models.RiskElevated, r.RiskLevel)
}

type constantFactor struct{}

func (constantFactor) Name() string { return "constant" }

func (constantFactor) Compute(*models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	return models.CascadeFactor{Name: "constant", Score: 42}, true
}
