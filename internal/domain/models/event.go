package models

import (
	"fmt"
	"strings"
)

// CascadeEvent is ground truth: a realized liquidation cascade detected from
// exchange force-order feeds. Read-only to the scoring core; the calibration
// fitter consumes it as outcome data.
type CascadeEvent struct {
	Symbol               string    `json:"symbol"`
	Direction            Direction `json:"direction"`
	StartTime            int64     `json:"start_time"` // ms epoch
	EndTime              int64     `json:"end_time"`   // ms epoch
	PriceChangePct       float64   `json:"price_change_pct"`
	LiquidationVolumeUSD float64   `json:"liquidation_volume_usd"`
}

// CascadeEventID builds the deterministic natural key for an event, so
// repeated detections of the same cascade never duplicate in storage.
func CascadeEventID(symbol string, direction Direction, startTimeMs int64) string {
	return fmt.Sprintf("%s:%s:%d", symbol, strings.ToUpper(string(direction)), startTimeMs)
}

// ID returns the event's natural key.
func (e *CascadeEvent) ID() string {
	return CascadeEventID(e.Symbol, e.Direction, e.StartTime)
}
