package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

func newLiquidationClient(t *testing.T) *LiquidationClient {
	t.Helper()
	s := NewLiquidationStream("ws://localhost:9", []string{"BTC"}, time.Millisecond, 5*time.Millisecond, testLogger(t))
	c, ok := s.(*LiquidationClient)
	require.True(t, ok)
	return c
}

func TestLiquidationPingLoopStopsWithSession(t *testing.T) {
	c := newLiquidationClient(t)

	// The context stays open, as it does across reconnects; only the
	// session's done channel closes.
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		c.pingLoop(context.Background(), nil, done)
		close(stopped)
	}()

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ping loop must stop when its read session ends")
	}
}

func TestLiquidationToRecord(t *testing.T) {
	c := newLiquidationClient(t)

	rec := c.toRecord(&forceOrder{
		Symbol:       "BTCUSDT",
		Side:         "SELL",
		Quantity:     "10.5",
		AveragePrice: "42000",
		TradeTime:    1700000000000,
	})
	require.NotNil(t, rec)
	assert.Equal(t, "BTC", rec.Symbol)
	assert.Equal(t, models.SideSell, rec.Side)
	assert.Equal(t, 42000.0, rec.Price)
	assert.Equal(t, 10.5, rec.Quantity)
	assert.InDelta(t, 441000, rec.USDValue, 1e-6)
	assert.Equal(t, int64(1700000000000), rec.Timestamp)

	buy := c.toRecord(&forceOrder{Symbol: "ETHUSDT", Side: "BUY", Quantity: "1", AveragePrice: "2000", TradeTime: 1})
	require.NotNil(t, buy)
	assert.Equal(t, models.SideBuy, buy.Side)
}
