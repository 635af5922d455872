package models

// HTTP request shapes for the risk API. Transport tags only; no business logic.

// AnomaliesRequest filters the recent-anomaly feed.
type AnomaliesRequest struct {
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=500"`
	Rule  string `query:"rule" validate:"omitempty,oneof=NOT_FINITE MARK_INDEX_DEVIATION FUNDING_OUT_OF_RANGE STALE_DATA NEGATIVE_OPEN_INTEREST FUTURE_TIMESTAMP PRICE_JUMP INVALID_LIQUIDATION"`
}

// EventsRequest queries stored cascade events for a symbol and time range.
type EventsRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"` // RFC3339 or unix seconds; defaults to 24h ago
	To     string `query:"to"`   // RFC3339 or unix seconds; defaults to now
}
