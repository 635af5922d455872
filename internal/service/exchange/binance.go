package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	drepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	xhttp "github.com/Abdr007/prism-ai-sub001/pkg/http"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

const binanceName = "binance"

// BinanceAdapter polls the Binance USD-M futures REST API.
type BinanceAdapter struct {
	baseURL string
	client  *xhttp.Client
	lgr     *logger.Logger
}

// NewBinance creates a Binance exchange adapter.
func NewBinance(baseURL string, timeout time.Duration, lgr *logger.Logger) drepo.ExchangeAdapter {
	return &BinanceAdapter{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		lgr:     lgr,
	}
}

func (a *BinanceAdapter) Name() string { return binanceName }

type binancePremiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	Time            int64  `json:"time"`
}

type binanceOpenInterest struct {
	Symbol       string `json:"symbol"`
	OpenInterest string `json:"openInterest"`
	Time         int64  `json:"time"`
}

// GetAllData fetches open interest, funding, and mark price for each symbol.
// Symbols that fail are skipped; the error is non-nil only when every symbol
// failed, so one bad instrument cannot starve the rest of the cycle.
func (a *BinanceAdapter) GetAllData(ctx context.Context, symbols []string) (*models.ExchangeData, error) {
	data := &models.ExchangeData{Exchange: binanceName}
	var lastErr error

	for _, symbol := range symbols {
		if err := a.fetchSymbol(ctx, symbol, data); err != nil {
			lastErr = err
			a.lgr.Warn("binance fetch failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}

	if data.Empty() && lastErr != nil {
		return nil, fmt.Errorf("binance: all symbols failed: %w", lastErr)
	}
	return data, nil
}

func (a *BinanceAdapter) fetchSymbol(ctx context.Context, symbol string, data *models.ExchangeData) error {
	instrument := binanceInstrument(symbol)

	var premium binancePremiumIndex
	if err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.baseURL + "/fapi/v1/premiumIndex",
		QueryParams: map[string][]string{"symbol": {instrument}},
	}, &premium); err != nil {
		return fmt.Errorf("premium index %s: %w", instrument, err)
	}

	mark := parseFloat(premium.MarkPrice)
	index := parseFloat(premium.IndexPrice)
	funding := parseFloat(premium.LastFundingRate)

	data.MarkPrices = append(data.MarkPrices, models.MarkPriceRecord{
		Exchange:   binanceName,
		Symbol:     symbol,
		MarkPrice:  mark,
		IndexPrice: index,
		Timestamp:  premium.Time,
	})
	data.FundingRates = append(data.FundingRates, models.FundingRateRecord{
		Exchange:    binanceName,
		Symbol:      symbol,
		FundingRate: funding,
		Timestamp:   premium.Time,
	})

	var oi binanceOpenInterest
	if err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.baseURL + "/fapi/v1/openInterest",
		QueryParams: map[string][]string{"symbol": {instrument}},
	}, &oi); err != nil {
		return fmt.Errorf("open interest %s: %w", instrument, err)
	}

	// Binance reports open interest in contracts of the base asset.
	contracts := parseFloat(oi.OpenInterest)
	data.OpenInterest = append(data.OpenInterest, models.OpenInterestRecord{
		Exchange:        binanceName,
		Symbol:          symbol,
		OpenInterest:    contracts,
		OpenInterestUSD: contracts * mark,
		Timestamp:       oi.Time,
	})
	return nil
}

// binanceInstrument maps a base symbol to its USDT perpetual.
func binanceInstrument(symbol string) string { return symbol + "USDT" }

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
