package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCascadeEventID(t *testing.T) {
	assert.Equal(t, "BTC:LONG_SQUEEZE:1700000000000",
		CascadeEventID("BTC", DirectionLongSqueeze, 1700000000000))
	assert.Equal(t, "ETH:SHORT_SQUEEZE:1700000060000",
		CascadeEventID("ETH", DirectionShortSqueeze, 1700000060000))
}

func TestCascadeEventIDIgnoresNonKeyFields(t *testing.T) {
	a := &CascadeEvent{
		Symbol:               "BTC",
		Direction:            DirectionLongSqueeze,
		StartTime:            1700000000000,
		LiquidationVolumeUSD: 5_000_000,
	}
	b := &CascadeEvent{
		Symbol:               "BTC",
		Direction:            DirectionLongSqueeze,
		StartTime:            1700000000000,
		EndTime:              1700000600000,
		PriceChangePct:       -0.03,
		LiquidationVolumeUSD: 9_000_000,
	}

	// The same cascade observed twice keys to one row regardless of how
	// much of it each observation saw.
	assert.Equal(t, a.ID(), b.ID())
}
