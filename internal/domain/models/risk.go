package models

// RiskLevel buckets a 0-100 risk score into alerting bands.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Direction of a predicted liquidation cascade. A long squeeze is a downward
// cascade of forced long closures; a short squeeze runs upward.
type Direction string

const (
	DirectionLongSqueeze  Direction = "long_squeeze"
	DirectionShortSqueeze Direction = "short_squeeze"
)

// CascadeFactor is a named sub-score in [0,100] with its combination weight.
type CascadeFactor struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// CascadePrediction is the optional directional call attached to a risk result.
type CascadePrediction struct {
	Direction          Direction `json:"direction"`
	Probability        float64   `json:"probability"` // calibrated, open (0,1)
	EstimatedImpactUSD float64   `json:"estimated_impact_usd"`
	TriggerPrice       float64   `json:"trigger_price"`
	TriggerDistancePct float64   `json:"trigger_distance_pct"`
	TimeWindow         string    `json:"time_window"`
}

// CascadeRisk is the per-symbol, per-cycle scoring output. Immutable once
// produced; ownership passes to whichever collaborator persists or alerts on it.
type CascadeRisk struct {
	Symbol     string             `json:"symbol"`
	RiskScore  int                `json:"risk_score"` // rounded, [0,100]
	RawScore   float64            `json:"raw_score"`  // pre-rounding, recorded for calibration
	RiskLevel  RiskLevel          `json:"risk_level"`
	Factors    []CascadeFactor    `json:"factors"`
	Prediction *CascadePrediction `json:"prediction,omitempty"`
	Timestamp  int64              `json:"timestamp"` // ms epoch
}

// RiskObservation is the minimal historical shape the calibration fitter reads:
// a raw score recorded at a moment in time.
type RiskObservation struct {
	Symbol    string
	RawScore  float64
	Timestamp int64 // ms epoch
}
