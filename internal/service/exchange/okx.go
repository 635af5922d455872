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

const okxName = "okx"

// OKXAdapter polls the OKX v5 public API for perpetual swaps.
type OKXAdapter struct {
	baseURL string
	client  *xhttp.Client
	lgr     *logger.Logger
}

// NewOKX creates an OKX exchange adapter.
func NewOKX(baseURL string, timeout time.Duration, lgr *logger.Logger) drepo.ExchangeAdapter {
	return &OKXAdapter{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		lgr:     lgr,
	}
}

func (a *OKXAdapter) Name() string { return okxName }

type okxResponse[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

type okxOpenInterest struct {
	InstID string `json:"instId"`
	OiUsd  string `json:"oiUsd"`
	Ts     string `json:"ts"`
}

type okxFundingRate struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
	Ts          string `json:"ts"`
}

type okxMarkPrice struct {
	InstID string `json:"instId"`
	MarkPx string `json:"markPx"`
	Ts     string `json:"ts"`
}

type okxIndexTicker struct {
	InstID string `json:"instId"`
	IdxPx  string `json:"idxPx"`
	Ts     string `json:"ts"`
}

func (a *OKXAdapter) GetAllData(ctx context.Context, symbols []string) (*models.ExchangeData, error) {
	data := &models.ExchangeData{Exchange: okxName}
	var lastErr error

	for _, symbol := range symbols {
		if err := a.fetchSymbol(ctx, symbol, data); err != nil {
			lastErr = err
			a.lgr.Warn("okx fetch failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}

	if data.Empty() && lastErr != nil {
		return nil, fmt.Errorf("okx: all symbols failed: %w", lastErr)
	}
	return data, nil
}

func (a *OKXAdapter) fetchSymbol(ctx context.Context, symbol string, data *models.ExchangeData) error {
	swap := symbol + "-USDT-SWAP"

	var oi okxResponse[okxOpenInterest]
	if err := a.get(ctx, "/api/v5/public/open-interest", map[string][]string{"instId": {swap}}, &oi); err != nil {
		return fmt.Errorf("open interest %s: %w", swap, err)
	}
	if len(oi.Data) > 0 {
		data.OpenInterest = append(data.OpenInterest, models.OpenInterestRecord{
			Exchange:        okxName,
			Symbol:          symbol,
			OpenInterestUSD: parseFloat(oi.Data[0].OiUsd),
			Timestamp:       parseInt64(oi.Data[0].Ts),
		})
	}

	var fr okxResponse[okxFundingRate]
	if err := a.get(ctx, "/api/v5/public/funding-rate", map[string][]string{"instId": {swap}}, &fr); err != nil {
		return fmt.Errorf("funding rate %s: %w", swap, err)
	}
	if len(fr.Data) > 0 {
		data.FundingRates = append(data.FundingRates, models.FundingRateRecord{
			Exchange:    okxName,
			Symbol:      symbol,
			FundingRate: parseFloat(fr.Data[0].FundingRate),
			Timestamp:   parseInt64(fr.Data[0].Ts),
		})
	}

	var mp okxResponse[okxMarkPrice]
	if err := a.get(ctx, "/api/v5/public/mark-price", map[string][]string{"instId": {swap}}, &mp); err != nil {
		return fmt.Errorf("mark price %s: %w", swap, err)
	}
	var idx okxResponse[okxIndexTicker]
	if err := a.get(ctx, "/api/v5/market/index-tickers", map[string][]string{"instId": {symbol + "-USDT"}}, &idx); err != nil {
		return fmt.Errorf("index ticker %s: %w", symbol, err)
	}
	if len(mp.Data) > 0 {
		indexPx := 0.0
		if len(idx.Data) > 0 {
			indexPx = parseFloat(idx.Data[0].IdxPx)
		}
		data.MarkPrices = append(data.MarkPrices, models.MarkPriceRecord{
			Exchange:   okxName,
			Symbol:     symbol,
			MarkPrice:  parseFloat(mp.Data[0].MarkPx),
			IndexPrice: indexPx,
			Timestamp:  parseInt64(mp.Data[0].Ts),
		})
	}
	return nil
}

func (a *OKXAdapter) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	return a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.baseURL + path,
		QueryParams: params,
	}, dest)
}
