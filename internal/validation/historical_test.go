package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

func mark(symbol string, price float64, ts int64) models.MarkPriceRecord {
	return models.MarkPriceRecord{
		Exchange:   "binance",
		Symbol:     symbol,
		MarkPrice:  price,
		IndexPrice: price,
		Timestamp:  ts,
	}
}

func TestSequentialJumpUsesLastAccepted(t *testing.T) {
	g, events, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	minute := int64(60_000)
	// 35% jump in the middle; the third record is 1% off the first.
	records := []models.MarkPriceRecord{
		mark("BTCUSDT", 100, nowMs-3*minute),
		mark("BTCUSDT", 135, nowMs-2*minute),
		mark("BTCUSDT", 101, nowMs-1*minute),
	}

	out := h.ValidateMarkPriceSeries(records)
	require.Len(t, out, 2)
	assert.Equal(t, 100.0, out[0].MarkPrice)
	assert.Equal(t, 101.0, out[1].MarkPrice)
	require.Len(t, *events, 1)
	assert.Equal(t, models.RulePriceJump, (*events)[0].Rule)
	assert.Equal(t, 135.0, (*events)[0].Value)
}

func TestSequentialJumpSortsByTime(t *testing.T) {
	g, _, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	minute := int64(60_000)
	records := []models.MarkPriceRecord{
		mark("BTCUSDT", 101, nowMs-1*minute),
		mark("BTCUSDT", 100, nowMs-3*minute),
		mark("BTCUSDT", 135, nowMs-2*minute),
	}

	out := h.ValidateMarkPriceSeries(records)
	require.Len(t, out, 2)
	assert.Equal(t, int64(nowMs-3*minute), out[0].Timestamp)
	assert.Equal(t, int64(nowMs-1*minute), out[1].Timestamp)
}

func TestSequentialJumpIsPerSymbol(t *testing.T) {
	g, _, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	minute := int64(60_000)
	records := []models.MarkPriceRecord{
		mark("BTCUSDT", 100, nowMs-2*minute),
		mark("ETHUSDT", 2000, nowMs-2*minute),
		mark("BTCUSDT", 110, nowMs-1*minute),
		mark("ETHUSDT", 2100, nowMs-1*minute),
	}

	out := h.ValidateMarkPriceSeries(records)
	assert.Len(t, out, 4)
}

func TestHistoricalRejectsFutureTimestamps(t *testing.T) {
	g, events, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	withinSkew := mark("BTCUSDT", 100, nowMs+4*int64(time.Minute/time.Millisecond))
	beyondSkew := mark("BTCUSDT", 100, nowMs+6*int64(time.Minute/time.Millisecond))

	out := h.ValidateMarkPriceSeries([]models.MarkPriceRecord{withinSkew, beyondSkew})
	require.Len(t, out, 1)
	assert.Equal(t, withinSkew.Timestamp, out[0].Timestamp)
	require.Len(t, *events, 1)
	assert.Equal(t, models.RuleFutureTimestamp, (*events)[0].Rule)
}

func TestHistoricalAcceptsOldRecords(t *testing.T) {
	g, _, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	// A day old is fine on the backfill path; only future skew rejects.
	old := mark("BTCUSDT", 100, nowMs-24*int64(time.Hour/time.Millisecond))
	out := h.ValidateMarkPriceSeries([]models.MarkPriceRecord{old})
	assert.Len(t, out, 1)
}

func TestHistoricalReset(t *testing.T) {
	g, _, _ := newTestGate(t, nowMs)
	h := NewHistoricalGate(g)

	minute := int64(60_000)
	_ = h.ValidateMarkPriceSeries([]models.MarkPriceRecord{mark("BTCUSDT", 100, nowMs - 2*minute)})
	h.Reset()

	// Without a reference, a 50% move from the prior run is accepted.
	out := h.ValidateMarkPriceSeries([]models.MarkPriceRecord{mark("BTCUSDT", 150, nowMs - 1*minute)})
	assert.Len(t, out, 1)
}
