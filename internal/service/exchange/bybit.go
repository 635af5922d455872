package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	drepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	xhttp "github.com/Abdr007/prism-ai-sub001/pkg/http"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

const bybitName = "bybit"

// BybitAdapter polls the Bybit v5 linear perpetual API. A single tickers
// call per symbol carries open interest value, funding, mark and index.
type BybitAdapter struct {
	baseURL string
	client  *xhttp.Client
	lgr     *logger.Logger
}

// NewBybit creates a Bybit exchange adapter.
func NewBybit(baseURL string, timeout time.Duration, lgr *logger.Logger) drepo.ExchangeAdapter {
	return &BybitAdapter{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		lgr:     lgr,
	}
}

func (a *BybitAdapter) Name() string { return bybitName }

type bybitTicker struct {
	Symbol            string `json:"symbol"`
	FundingRate       string `json:"fundingRate"`
	MarkPrice         string `json:"markPrice"`
	IndexPrice        string `json:"indexPrice"`
	OpenInterestValue string `json:"openInterestValue"`
}

type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []bybitTicker `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

func (a *BybitAdapter) GetAllData(ctx context.Context, symbols []string) (*models.ExchangeData, error) {
	data := &models.ExchangeData{Exchange: bybitName}
	var lastErr error

	for _, symbol := range symbols {
		if err := a.fetchSymbol(ctx, symbol, data); err != nil {
			lastErr = err
			a.lgr.Warn("bybit fetch failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}

	if data.Empty() && lastErr != nil {
		return nil, fmt.Errorf("bybit: all symbols failed: %w", lastErr)
	}
	return data, nil
}

func (a *BybitAdapter) fetchSymbol(ctx context.Context, symbol string, data *models.ExchangeData) error {
	instrument := symbol + "USDT"

	var resp bybitTickersResponse
	if err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.baseURL + "/v5/market/tickers",
		QueryParams: map[string][]string{
			"category": {"linear"},
			"symbol":   {instrument},
		},
	}, &resp); err != nil {
		return fmt.Errorf("tickers %s: %w", instrument, err)
	}
	if resp.RetCode != 0 {
		return fmt.Errorf("tickers %s: retCode %d: %s", instrument, resp.RetCode, resp.RetMsg)
	}
	if len(resp.Result.List) == 0 {
		return fmt.Errorf("tickers %s: empty result", instrument)
	}

	t := resp.Result.List[0]
	ts := resp.Time

	data.OpenInterest = append(data.OpenInterest, models.OpenInterestRecord{
		Exchange:        bybitName,
		Symbol:          symbol,
		OpenInterestUSD: parseFloat(t.OpenInterestValue),
		Timestamp:       ts,
	})
	data.FundingRates = append(data.FundingRates, models.FundingRateRecord{
		Exchange:    bybitName,
		Symbol:      symbol,
		FundingRate: parseFloat(t.FundingRate),
		Timestamp:   ts,
	})
	data.MarkPrices = append(data.MarkPrices, models.MarkPriceRecord{
		Exchange:   bybitName,
		Symbol:     symbol,
		MarkPrice:  parseFloat(t.MarkPrice),
		IndexPrice: parseFloat(t.IndexPrice),
		Timestamp:  ts,
	})
	return nil
}
