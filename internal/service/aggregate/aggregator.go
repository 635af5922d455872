package aggregate

import (
	"sort"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
)

// CrossExchangeAggregator folds validated per-exchange bundles into one
// snapshot per symbol. Exchanges that reported nothing for a symbol are
// simply absent from its breakdown; they are never filled in as zeros.
type CrossExchangeAggregator struct{}

// New creates a cross-exchange aggregator.
func New() domrepo.Aggregator {
	return &CrossExchangeAggregator{}
}

// Aggregate builds per-symbol snapshots. Symbols with no contribution from
// any exchange produce no snapshot at all, so downstream scoring skips them.
func (a *CrossExchangeAggregator) Aggregate(data []*models.ExchangeData, symbols []string) []*models.AggregatedSnapshot {
	out := make([]*models.AggregatedSnapshot, 0, len(symbols))
	for _, symbol := range symbols {
		if s := a.aggregateSymbol(data, symbol); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (a *CrossExchangeAggregator) aggregateSymbol(data []*models.ExchangeData, symbol string) *models.AggregatedSnapshot {
	var (
		breakdowns []models.ExchangeBreakdown
		fundings   []float64
		marks      []float64
		indexes    []float64
		totalOI    float64
		maxTS      int64
	)

	for _, d := range data {
		if d == nil {
			continue
		}
		b := models.ExchangeBreakdown{Exchange: d.Exchange}

		for i := range d.OpenInterest {
			r := &d.OpenInterest[i]
			if r.Symbol != symbol {
				continue
			}
			b.OpenInterestUSD = r.OpenInterestUSD
			b.HasOpenInterest = true
			totalOI += r.OpenInterestUSD
			maxTS = maxInt64(maxTS, r.Timestamp)
		}
		for i := range d.FundingRates {
			r := &d.FundingRates[i]
			if r.Symbol != symbol {
				continue
			}
			b.FundingRate = r.FundingRate
			b.HasFunding = true
			fundings = append(fundings, r.FundingRate)
			maxTS = maxInt64(maxTS, r.Timestamp)
		}
		for i := range d.MarkPrices {
			r := &d.MarkPrices[i]
			if r.Symbol != symbol {
				continue
			}
			b.MarkPrice = r.MarkPrice
			b.IndexPrice = r.IndexPrice
			b.HasMarkPrice = true
			marks = append(marks, r.MarkPrice)
			if r.IndexPrice > 0 {
				indexes = append(indexes, r.IndexPrice)
			}
			maxTS = maxInt64(maxTS, r.Timestamp)
		}

		if b.HasOpenInterest || b.HasFunding || b.HasMarkPrice {
			breakdowns = append(breakdowns, b)
		}
	}

	if len(breakdowns) == 0 {
		return nil
	}

	return &models.AggregatedSnapshot{
		Symbol:               symbol,
		TotalOpenInterestUSD: totalOI,
		MedianFundingRate:    median(fundings),
		MedianMarkPrice:      median(marks),
		MedianIndexPrice:     median(indexes),
		Exchanges:            breakdowns,
		Timestamp:            maxTS,
	}
}

// median of a sample; even-length samples average the middle pair. An empty
// sample yields zero, which callers treat as "not reported".
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
