package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// Config holds the gate's rejection thresholds.
type Config struct {
	MaxMarkIndexDeviation float64       // fraction, reject above (default 0.05)
	MaxFundingRate        float64       // absolute, reject above (default 0.05)
	StaleAfter            time.Duration // live records older than this are stale
	ClockSkewTolerance    time.Duration // historical records this far in the future are rejected
	MaxSequentialJump     float64       // fraction, historical mark-price jump limit
}

// DefaultConfig returns production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxMarkIndexDeviation: 0.05,
		MaxFundingRate:        0.05,
		StaleAfter:            15 * time.Second,
		ClockSkewTolerance:    5 * time.Minute,
		MaxSequentialJump:     0.20,
	}
}

// AnomalySink receives one event per rejected record.
type AnomalySink func(*models.AnomalyEvent)

// Gate filters raw per-exchange metric records. It drops bad records and
// reports them; it never fails the pipeline over bad data.
type Gate struct {
	cfg     Config
	lgr     *logger.Logger
	metrics domrepo.Metrics
	sink    AnomalySink
	now     func() time.Time
}

// GateOption configures Gate.
type GateOption func(*Gate)

// WithAnomalySink registers the sink rejections are reported to.
func WithAnomalySink(sink AnomalySink) GateOption {
	return func(g *Gate) { g.sink = sink }
}

// WithClock overrides the freshness clock.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a validation gate.
func NewGate(cfg Config, lgr *logger.Logger, metrics domrepo.Metrics, opts ...GateOption) *Gate {
	g := &Gate{
		cfg:     cfg,
		lgr:     lgr,
		metrics: metrics,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateOpenInterest checks a live open interest record.
func (g *Gate) ValidateOpenInterest(r *models.OpenInterestRecord) bool {
	if !finite(r.OpenInterest) {
		g.reject(r.Exchange, r.Symbol, "openInterest", r.OpenInterest, models.RuleNotFinite, "open interest is not finite")
		return false
	}
	if !finite(r.OpenInterestUSD) {
		g.reject(r.Exchange, r.Symbol, "openInterestUSD", r.OpenInterestUSD, models.RuleNotFinite, "open interest USD is not finite")
		return false
	}
	if r.OpenInterest < 0 || r.OpenInterestUSD < 0 {
		g.reject(r.Exchange, r.Symbol, "openInterest", r.OpenInterest, models.RuleNegativeOI, "open interest is negative")
		return false
	}
	return g.fresh(r.Exchange, r.Symbol, "openInterest", r.Timestamp)
}

// ValidateFundingRate checks a live funding rate record. The ±MaxFundingRate
// boundary itself is accepted.
func (g *Gate) ValidateFundingRate(r *models.FundingRateRecord) bool {
	if !finite(r.FundingRate) {
		g.reject(r.Exchange, r.Symbol, "fundingRate", r.FundingRate, models.RuleNotFinite, "funding rate is not finite")
		return false
	}
	if math.Abs(r.FundingRate) > g.cfg.MaxFundingRate {
		g.reject(r.Exchange, r.Symbol, "fundingRate", r.FundingRate, models.RuleFundingOutOfRange,
			fmt.Sprintf("|funding| %.4f exceeds %.4f", math.Abs(r.FundingRate), g.cfg.MaxFundingRate))
		return false
	}
	return g.fresh(r.Exchange, r.Symbol, "fundingRate", r.Timestamp)
}

// ValidateMarkPrice checks a live mark/index price pair. The deviation rule is
// only evaluated when both prices are finite and positive; a zero or negative
// index price skips the check rather than dividing by zero.
func (g *Gate) ValidateMarkPrice(r *models.MarkPriceRecord) bool {
	if !finite(r.MarkPrice) {
		g.reject(r.Exchange, r.Symbol, "markPrice", r.MarkPrice, models.RuleNotFinite, "mark price is not finite")
		return false
	}
	if !finite(r.IndexPrice) {
		g.reject(r.Exchange, r.Symbol, "indexPrice", r.IndexPrice, models.RuleNotFinite, "index price is not finite")
		return false
	}
	if r.MarkPrice > 0 && r.IndexPrice > 0 {
		dev := math.Abs(r.MarkPrice-r.IndexPrice) / r.IndexPrice
		if dev > g.cfg.MaxMarkIndexDeviation {
			g.reject(r.Exchange, r.Symbol, "markPrice", r.MarkPrice, models.RuleMarkIndexDeviation,
				fmt.Sprintf("mark/index deviation %.2f%% exceeds %.2f%%", dev*100, g.cfg.MaxMarkIndexDeviation*100))
			return false
		}
	}
	return g.fresh(r.Exchange, r.Symbol, "markPrice", r.Timestamp)
}

// ValidateLiquidation checks a force-order record from a liquidation stream.
func (g *Gate) ValidateLiquidation(r *models.LiquidationRecord) bool {
	for field, v := range map[string]float64{"price": r.Price, "quantity": r.Quantity, "usdValue": r.USDValue} {
		if !finite(v) {
			g.reject(r.Exchange, r.Symbol, field, v, models.RuleNotFinite, field+" is not finite")
			return false
		}
	}
	if r.Price <= 0 || r.Quantity <= 0 || r.USDValue <= 0 {
		g.reject(r.Exchange, r.Symbol, "price", r.Price, models.RuleBadLiquidation, "liquidation fields must be positive")
		return false
	}
	if r.Side != models.SideBuy && r.Side != models.SideSell {
		g.reject(r.Exchange, r.Symbol, "side", 0, models.RuleBadLiquidation, "side must be BUY or SELL, got "+r.Side)
		return false
	}
	return true
}

// ValidateExchangeData filters one exchange's metric bundle in place and
// returns it, or nil when the bundle has nothing valid left. An exchange that
// loses all three lists is dropped for the cycle rather than forwarded empty.
func (g *Gate) ValidateExchangeData(d *models.ExchangeData) *models.ExchangeData {
	if d == nil {
		return nil
	}

	oi := d.OpenInterest[:0]
	for i := range d.OpenInterest {
		if g.ValidateOpenInterest(&d.OpenInterest[i]) {
			oi = append(oi, d.OpenInterest[i])
		}
	}
	d.OpenInterest = oi

	fr := d.FundingRates[:0]
	for i := range d.FundingRates {
		if g.ValidateFundingRate(&d.FundingRates[i]) {
			fr = append(fr, d.FundingRates[i])
		}
	}
	d.FundingRates = fr

	mp := d.MarkPrices[:0]
	for i := range d.MarkPrices {
		if g.ValidateMarkPrice(&d.MarkPrices[i]) {
			mp = append(mp, d.MarkPrices[i])
		}
	}
	d.MarkPrices = mp

	if d.Empty() {
		if g.lgr != nil {
			g.lgr.Warn("exchange bundle dropped, no valid records", logger.String("exchange", d.Exchange))
		}
		return nil
	}
	return d
}

// ValidateBatch filters a full cycle's bundles, dropping emptied exchanges.
func (g *Gate) ValidateBatch(data []*models.ExchangeData) []*models.ExchangeData {
	out := make([]*models.ExchangeData, 0, len(data))
	for _, d := range data {
		if kept := g.ValidateExchangeData(d); kept != nil {
			out = append(out, kept)
		}
	}
	return out
}

func (g *Gate) fresh(exchange, symbol, field string, ts int64) bool {
	age := g.now().UnixMilli() - ts
	if age > g.cfg.StaleAfter.Milliseconds() {
		g.reject(exchange, symbol, field, float64(ts), models.RuleStaleData,
			fmt.Sprintf("record is %dms old, limit %dms", age, g.cfg.StaleAfter.Milliseconds()))
		return false
	}
	return true
}

func (g *Gate) reject(exchange, symbol, field string, value float64, rule, detail string) {
	ev := &models.AnomalyEvent{
		Exchange:  exchange,
		Symbol:    symbol,
		Field:     field,
		Value:     value,
		Rule:      rule,
		Detail:    detail,
		Timestamp: g.now().UnixMilli(),
	}
	if g.metrics != nil {
		g.metrics.RecordRejection(exchange, rule)
	}
	if g.lgr != nil {
		g.lgr.Debug("record rejected",
			logger.String("exchange", exchange),
			logger.String("symbol", symbol),
			logger.String("rule", rule),
			logger.String("detail", detail),
		)
	}
	if g.sink != nil {
		g.sink(ev)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
