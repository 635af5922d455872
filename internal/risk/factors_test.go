package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

func snapshot(symbol string, funding float64, marks []float64, oiUSD []float64) *models.AggregatedSnapshot {
	s := &models.AggregatedSnapshot{
		Symbol:            symbol,
		MedianFundingRate: funding,
		Timestamp:         1700000000000,
	}
	names := []string{"binance", "bybit", "okx"}
	for i := range marks {
		b := models.ExchangeBreakdown{Exchange: names[i%len(names)]}
		if marks[i] > 0 {
			b.MarkPrice = marks[i]
			b.IndexPrice = marks[i]
			b.HasMarkPrice = true
		}
		if i < len(oiUSD) && oiUSD[i] > 0 {
			b.OpenInterestUSD = oiUSD[i]
			b.HasOpenInterest = true
			s.TotalOpenInterestUSD += oiUSD[i]
		}
		b.FundingRate = funding
		b.HasFunding = true
		s.Exchanges = append(s.Exchanges, b)
	}
	if len(marks) > 0 {
		s.MedianMarkPrice = marks[len(marks)/2]
		s.MedianIndexPrice = s.MedianMarkPrice
	}
	return s
}

func TestFundingExtremityFactor(t *testing.T) {
	f := NewFundingExtremityFactor(DefaultConfig())

	// Neutral funding scores zero.
	got, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{42000}, []float64{1e9}))
	require.True(t, ok)
	assert.Equal(t, 0.0, got.Score)

	// Half the scale scores 50, either sign.
	got, _ = f.Compute(snapshot("BTCUSDT", 0.005, []float64{42000}, []float64{1e9}))
	assert.InDelta(t, 50, got.Score, 1e-9)
	got, _ = f.Compute(snapshot("BTCUSDT", -0.005, []float64{42000}, []float64{1e9}))
	assert.InDelta(t, 50, got.Score, 1e-9)

	// Beyond the scale clamps at 100.
	got, _ = f.Compute(snapshot("BTCUSDT", 0.04, []float64{42000}, []float64{1e9}))
	assert.Equal(t, 100.0, got.Score)
}

func TestOpenInterestConcentration(t *testing.T) {
	f := NewOpenInterestFactor(DefaultConfig())

	// Evenly split OI scores near zero concentration.
	got, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{100, 100, 100}, []float64{1e9, 1e9, 1e9}))
	require.True(t, ok)
	assert.InDelta(t, 0, got.Score, 1e-9)

	// One dominant venue scores high.
	got, _ = f.Compute(snapshot("BTCUSDT", 0, []float64{100, 100, 100}, []float64{9e9, 0.5e9, 0.5e9}))
	assert.Greater(t, got.Score, 50.0)

	// A single venue is fully concentrated.
	got, _ = f.Compute(snapshot("BTCUSDT", 0, []float64{100}, []float64{1e9}))
	assert.Equal(t, 100.0, got.Score)

	// No OI anywhere: factor not computable.
	_, ok = f.Compute(snapshot("BTCUSDT", 0, []float64{100}, nil))
	assert.False(t, ok)
}

func TestOpenInterestGrowth(t *testing.T) {
	f := NewOpenInterestFactor(DefaultConfig())
	base := snapshot("BTCUSDT", 0, []float64{100}, []float64{1e9})

	first, _ := f.Compute(base)
	f.Observe(base)

	// 10% growth saturates the growth component.
	grown := snapshot("BTCUSDT", 0, []float64{100}, []float64{1.1e9})
	second, _ := f.Compute(grown)
	assert.Greater(t, second.Score, 0.0)
	// Blended: 0.6*concentration(100) + 0.4*growth(100).
	assert.InDelta(t, first.Score, second.Score, 1e-9)

	// Shrinking OI contributes no growth score.
	shrunk := snapshot("BTCUSDT", 0, []float64{100}, []float64{0.5e9})
	third, _ := f.Compute(shrunk)
	assert.InDelta(t, 60, third.Score, 1e-9)
}

func TestPriceDispersionFactor(t *testing.T) {
	f := NewPriceDispersionFactor(DefaultConfig())

	// Single venue: not computable, never zero-filled.
	_, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{42000}, []float64{1e9}))
	assert.False(t, ok)

	// 1% spread against a 2% scale scores 50.
	got, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{100, 101, 100}, []float64{1e9, 1e9, 1e9}))
	require.True(t, ok)
	assert.InDelta(t, 50, got.Score, 1)
}

func TestRealizedVolatilityFactor(t *testing.T) {
	f := NewRealizedVolatilityFactor(DefaultConfig())

	// Needs history before it can compute.
	_, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{100}, []float64{1e9}))
	assert.False(t, ok)

	for _, p := range []float64{100, 100, 100, 100} {
		f.Observe(snapshot("BTCUSDT", 0, []float64{p}, []float64{1e9}))
	}
	got, ok := f.Compute(snapshot("BTCUSDT", 0, []float64{100}, []float64{1e9}))
	require.True(t, ok)
	assert.Equal(t, 0.0, got.Score, "flat prices mean zero volatility")

	g := NewRealizedVolatilityFactor(DefaultConfig())
	for _, p := range []float64{100, 104, 99, 105} {
		g.Observe(snapshot("ETHUSDT", 0, []float64{p}, []float64{1e9}))
	}
	got, ok = g.Compute(snapshot("ETHUSDT", 0, []float64{105}, []float64{1e9}))
	require.True(t, ok)
	assert.Greater(t, got.Score, 50.0)
}

func TestEstimateTriggerDistance(t *testing.T) {
	cfg := DefaultConfig()

	calm := snapshot("BTCUSDT", 0, []float64{100, 100}, []float64{1e9, 1e9})
	crowded := snapshot("BTCUSDT", 0.01, []float64{100}, []float64{1e9})

	dCalm := EstimateTriggerDistance(calm, cfg)
	dCrowded := EstimateTriggerDistance(crowded, cfg)

	assert.InDelta(t, cfg.BaseLiquidationDistance, dCalm, 1e-9)
	assert.Less(t, dCrowded, dCalm, "crowding pulls the trigger closer")
	assert.Greater(t, dCrowded, 0.0)
}
