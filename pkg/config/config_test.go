package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.Environment = "test"
	c.Symbols = []string{"BTC", "ETH"}
	c.Exchanges.Binance.Enabled = true
	c.Cycle.Interval = time.Minute
	return c
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateConfidenceLevels(t *testing.T) {
	for _, conf := range []float64{0, 0.90, 0.95, 0.99} {
		c := validConfig()
		c.Calibration.Confidence = conf
		assert.NoError(t, c.Validate(), "confidence %v", conf)
	}

	c := validConfig()
	c.Calibration.Confidence = 0.8
	err := c.Validate()
	require.Error(t, err, "untabulated confidence must be rejected, not silently treated as 95%")
	assert.Contains(t, err.Error(), "calibration.confidence")
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	c := validConfig()
	c.Risk.Weights = map[string]float64{"funding_extremity": -0.2}
	assert.Error(t, c.Validate())
}

func TestValidateRequiresAnExchange(t *testing.T) {
	c := validConfig()
	c.Exchanges.Binance.Enabled = false
	assert.Error(t, c.Validate())
}
