package risk

// Factor names, used as weight keys in config and in explainability output.
const (
	FactorFunding      = "funding_extremity"
	FactorOpenInterest = "open_interest_concentration"
	FactorDispersion   = "price_dispersion"
	FactorProximity    = "liquidation_proximity"
	FactorVolatility   = "realized_volatility"
)

// Config tunes the scoring engine. The weighting here is deliberately
// configuration, not code: it is meant to be revised through the calibration
// backtesting loop.
type Config struct {
	Weights                 map[string]float64 `yaml:"weights"`
	PredictionThreshold     float64            `yaml:"prediction_threshold"`      // raw score at or above emits a prediction
	ParticipationRate       float64            `yaml:"participation_rate"`        // fraction of at-risk OI assumed to cascade
	BaseLiquidationDistance float64            `yaml:"base_liquidation_distance"` // fraction of mark price
	FundingScale            float64            `yaml:"funding_scale"`             // |funding| mapping to a 100 extremity score
	DispersionScale         float64            `yaml:"dispersion_scale"`          // cross-exchange spread mapping to 100
	OIGrowthScale           float64            `yaml:"oi_growth_scale"`           // inter-cycle OI growth mapping to 100
	VolatilityScale         float64            `yaml:"volatility_scale"`          // per-window return stdev mapping to 100
	VolatilityWindow        int                `yaml:"volatility_window"`         // rolling price points kept per symbol
}

// DefaultConfig returns the tuned production weighting.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			FactorFunding:      0.25,
			FactorOpenInterest: 0.20,
			FactorDispersion:   0.15,
			FactorProximity:    0.20,
			FactorVolatility:   0.20,
		},
		PredictionThreshold:     20,
		ParticipationRate:       0.35,
		BaseLiquidationDistance: 0.085,
		FundingScale:            0.01,
		DispersionScale:         0.02,
		OIGrowthScale:           0.10,
		VolatilityScale:         0.02,
		VolatilityWindow:        32,
	}
}
