package models

// Validation rule tags attached to anomaly events.
const (
	RuleNotFinite          = "NOT_FINITE"
	RuleMarkIndexDeviation = "MARK_INDEX_DEVIATION"
	RuleFundingOutOfRange  = "FUNDING_OUT_OF_RANGE"
	RuleStaleData          = "STALE_DATA"
	RuleNegativeOI         = "NEGATIVE_OPEN_INTEREST"
	RuleFutureTimestamp    = "FUTURE_TIMESTAMP"
	RulePriceJump          = "PRICE_JUMP"
	RuleBadLiquidation     = "INVALID_LIQUIDATION"
)

// AnomalyEvent describes one rejected metric reading. Events are transient:
// they are emitted for observability and never queued or retried.
type AnomalyEvent struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Field     string  `json:"field"`
	Value     float64 `json:"value"`
	Rule      string  `json:"rule"`
	Detail    string  `json:"detail"`
	Timestamp int64   `json:"timestamp"` // ms epoch
}
