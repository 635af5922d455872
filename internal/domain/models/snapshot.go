package models

// ExchangeBreakdown is one exchange's contribution inside an aggregated snapshot.
// A zero OpenInterestUSD with HasOpenInterest=false means the exchange did not
// report, which is distinct from reporting zero.
type ExchangeBreakdown struct {
	Exchange        string
	OpenInterestUSD float64
	FundingRate     float64
	MarkPrice       float64
	IndexPrice      float64
	HasOpenInterest bool
	HasFunding      bool
	HasMarkPrice    bool
}

// AggregatedSnapshot is the validated cross-exchange view for one symbol.
// Every field in it has already passed the validation gate.
type AggregatedSnapshot struct {
	Symbol               string
	TotalOpenInterestUSD float64
	MedianFundingRate    float64
	MedianMarkPrice      float64
	MedianIndexPrice     float64
	Exchanges            []ExchangeBreakdown
	Timestamp            int64 // ms epoch
}

// ExchangeCount returns how many exchanges contributed any data.
func (s *AggregatedSnapshot) ExchangeCount() int {
	return len(s.Exchanges)
}
