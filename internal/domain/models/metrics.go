package models

// OpenInterestRecord is one exchange's open interest reading for a symbol.
type OpenInterestRecord struct {
	Exchange        string
	Symbol          string
	OpenInterest    float64 // contracts
	OpenInterestUSD float64
	Timestamp       int64 // ms epoch
}

// FundingRateRecord is one exchange's current perpetual funding rate.
type FundingRateRecord struct {
	Exchange        string
	Symbol          string
	FundingRate     float64 // per funding interval, e.g. 0.0001 = 1bp
	NextFundingTime int64   // ms epoch, 0 if unknown
	Timestamp       int64   // ms epoch
}

// MarkPriceRecord carries an exchange's mark and index price pair.
type MarkPriceRecord struct {
	Exchange   string
	Symbol     string
	MarkPrice  float64
	IndexPrice float64
	Timestamp  int64 // ms epoch
}

// Liquidation order sides as reported by exchange force-order feeds.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// LiquidationRecord is a single forced-closure order observed on an exchange.
type LiquidationRecord struct {
	Exchange  string
	Symbol    string
	Side      string // BUY closes shorts, SELL closes longs
	Price     float64
	Quantity  float64
	USDValue  float64
	Timestamp int64 // ms epoch
}

// ExchangeData bundles everything one exchange reported in a poll cycle.
// Records are ephemeral: they live for one cycle and are never persisted raw.
type ExchangeData struct {
	Exchange     string
	OpenInterest []OpenInterestRecord
	FundingRates []FundingRateRecord
	MarkPrices   []MarkPriceRecord
	Timestamp    int64 // ms epoch of the fetch
}

// Empty reports whether the bundle carries no metric records at all.
func (d *ExchangeData) Empty() bool {
	return len(d.OpenInterest) == 0 && len(d.FundingRates) == 0 && len(d.MarkPrices) == 0
}
