package validation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

type stubMetrics struct {
	rejections map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{rejections: map[string]int{}}
}

func (m *stubMetrics) RecordCycle(float64, int)              {}
func (m *stubMetrics) RecordRejection(_ string, rule string) { m.rejections[rule]++ }
func (m *stubMetrics) RecordRiskScore(string, float64)       {}
func (m *stubMetrics) RecordError(string)                    {}
func (m *stubMetrics) RecordLatency(string, float64)         {}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTestGate(t *testing.T, now int64) (*Gate, *[]*models.AnomalyEvent, *stubMetrics) {
	t.Helper()
	var events []*models.AnomalyEvent
	m := newStubMetrics()
	g := NewGate(DefaultConfig(), nil, m,
		WithClock(fixedClock(now)),
		WithAnomalySink(func(ev *models.AnomalyEvent) { events = append(events, ev) }),
	)
	return g, &events, m
}

const nowMs = int64(1700000000000)

func TestValidateFundingRate(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		accepted bool
		rule     string
	}{
		{"in range", 0.0003, true, ""},
		{"boundary inclusive", 0.05, true, ""},
		{"negative boundary inclusive", -0.05, true, ""},
		{"above boundary", 0.06, false, models.RuleFundingOutOfRange},
		{"below negative boundary", -0.051, false, models.RuleFundingOutOfRange},
		{"nan", math.NaN(), false, models.RuleNotFinite},
		{"inf", math.Inf(1), false, models.RuleNotFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, events, _ := newTestGate(t, nowMs)
			r := &models.FundingRateRecord{Exchange: "binance", Symbol: "BTCUSDT", FundingRate: tt.rate, Timestamp: nowMs}
			got := g.ValidateFundingRate(r)
			assert.Equal(t, tt.accepted, got)
			if !tt.accepted {
				require.Len(t, *events, 1)
				assert.Equal(t, tt.rule, (*events)[0].Rule)
			} else {
				assert.Empty(t, *events)
			}
		})
	}
}

func TestValidateMarkPrice(t *testing.T) {
	tests := []struct {
		name       string
		mark, idx  float64
		accepted   bool
		rule       string
	}{
		{"4 percent deviation accepted", 104, 100, true, ""},
		{"10 percent deviation rejected", 110, 100, false, models.RuleMarkIndexDeviation},
		{"exact boundary accepted", 105, 100, true, ""},
		{"zero index skips deviation", 110, 0, true, ""},
		{"negative index skips deviation", 110, -1, true, ""},
		{"nan mark", math.NaN(), 100, false, models.RuleNotFinite},
		{"inf index", 100, math.Inf(-1), false, models.RuleNotFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, events, _ := newTestGate(t, nowMs)
			r := &models.MarkPriceRecord{Exchange: "bybit", Symbol: "ETHUSDT", MarkPrice: tt.mark, IndexPrice: tt.idx, Timestamp: nowMs}
			got := g.ValidateMarkPrice(r)
			assert.Equal(t, tt.accepted, got)
			if !tt.accepted {
				require.Len(t, *events, 1)
				assert.Equal(t, tt.rule, (*events)[0].Rule)
			}
		})
	}
}

func TestValidateOpenInterest(t *testing.T) {
	g, events, m := newTestGate(t, nowMs)

	ok := g.ValidateOpenInterest(&models.OpenInterestRecord{
		Exchange: "okx", Symbol: "BTCUSDT", OpenInterest: 125000, OpenInterestUSD: 5.1e9, Timestamp: nowMs,
	})
	assert.True(t, ok)

	ok = g.ValidateOpenInterest(&models.OpenInterestRecord{
		Exchange: "okx", Symbol: "BTCUSDT", OpenInterest: -5, OpenInterestUSD: 0, Timestamp: nowMs,
	})
	assert.False(t, ok)
	require.Len(t, *events, 1)
	assert.Equal(t, models.RuleNegativeOI, (*events)[0].Rule)
	assert.Equal(t, 1, m.rejections[models.RuleNegativeOI])
}

func TestStaleData(t *testing.T) {
	g, events, _ := newTestGate(t, nowMs)

	fresh := &models.FundingRateRecord{Exchange: "binance", Symbol: "BTCUSDT", FundingRate: 0.0001, Timestamp: nowMs - 14000}
	assert.True(t, g.ValidateFundingRate(fresh))

	stale := &models.FundingRateRecord{Exchange: "binance", Symbol: "BTCUSDT", FundingRate: 0.0001, Timestamp: nowMs - 15001}
	assert.False(t, g.ValidateFundingRate(stale))
	require.Len(t, *events, 1)
	assert.Equal(t, models.RuleStaleData, (*events)[0].Rule)
}

func TestValidateLiquidation(t *testing.T) {
	tests := []struct {
		name     string
		rec      models.LiquidationRecord
		accepted bool
	}{
		{"valid sell", models.LiquidationRecord{Side: "SELL", Price: 42000, Quantity: 1.5, USDValue: 63000}, true},
		{"valid buy", models.LiquidationRecord{Side: "BUY", Price: 42000, Quantity: 0.1, USDValue: 4200}, true},
		{"zero price", models.LiquidationRecord{Side: "SELL", Price: 0, Quantity: 1, USDValue: 100}, false},
		{"negative quantity", models.LiquidationRecord{Side: "SELL", Price: 100, Quantity: -1, USDValue: 100}, false},
		{"zero usd value", models.LiquidationRecord{Side: "BUY", Price: 100, Quantity: 1, USDValue: 0}, false},
		{"bad side", models.LiquidationRecord{Side: "LONG", Price: 100, Quantity: 1, USDValue: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGate(t, nowMs)
			tt.rec.Exchange = "binance"
			tt.rec.Symbol = "BTCUSDT"
			tt.rec.Timestamp = nowMs
			assert.Equal(t, tt.accepted, g.ValidateLiquidation(&tt.rec))
		})
	}
}

func TestValidateExchangeDataDropsEmptiedBundle(t *testing.T) {
	g, events, _ := newTestGate(t, nowMs)

	d := &models.ExchangeData{
		Exchange: "binance",
		OpenInterest: []models.OpenInterestRecord{
			{Exchange: "binance", Symbol: "BTCUSDT", OpenInterest: -1, Timestamp: nowMs},
		},
		FundingRates: []models.FundingRateRecord{
			{Exchange: "binance", Symbol: "BTCUSDT", FundingRate: 0.09, Timestamp: nowMs},
		},
		MarkPrices: []models.MarkPriceRecord{
			{Exchange: "binance", Symbol: "BTCUSDT", MarkPrice: 120, IndexPrice: 100, Timestamp: nowMs},
		},
		Timestamp: nowMs,
	}

	assert.Nil(t, g.ValidateExchangeData(d))
	assert.Len(t, *events, 3)
}

func TestValidateBatchKeepsPartialBundles(t *testing.T) {
	g, _, _ := newTestGate(t, nowMs)

	good := &models.ExchangeData{
		Exchange: "bybit",
		MarkPrices: []models.MarkPriceRecord{
			{Exchange: "bybit", Symbol: "BTCUSDT", MarkPrice: 42000, IndexPrice: 42010, Timestamp: nowMs},
			{Exchange: "bybit", Symbol: "ETHUSDT", MarkPrice: math.NaN(), IndexPrice: 2200, Timestamp: nowMs},
		},
		Timestamp: nowMs,
	}
	bad := &models.ExchangeData{
		Exchange: "okx",
		FundingRates: []models.FundingRateRecord{
			{Exchange: "okx", Symbol: "BTCUSDT", FundingRate: 0.3, Timestamp: nowMs},
		},
		Timestamp: nowMs,
	}

	out := g.ValidateBatch([]*models.ExchangeData{good, bad})
	require.Len(t, out, 1)
	assert.Equal(t, "bybit", out[0].Exchange)
	assert.Len(t, out[0].MarkPrices, 1)
}
