package risk

import (
	"math"
	"sync"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// FactorPlugin computes one named sub-score in [0,100] from a snapshot. New
// factors are added by registering another plugin with the engine, never by
// modifying the engine. ok=false means the snapshot lacks the inputs this
// factor needs; the engine then excludes it instead of treating it as zero.
type FactorPlugin interface {
	Name() string
	Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool)
}

// Observer is implemented by plugins that carry rolling state across cycles.
// The cycle calls Observe after scoring so Compute stays a pure read.
type Observer interface {
	Observe(s *models.AggregatedSnapshot)
}

// --- funding extremity ---

// FundingExtremityFactor scores how far the cross-exchange funding rate sits
// from neutral. Extreme funding marks a crowded side paying to stay in.
type FundingExtremityFactor struct {
	scale float64
}

func NewFundingExtremityFactor(cfg Config) *FundingExtremityFactor {
	return &FundingExtremityFactor{scale: cfg.FundingScale}
}

func (f *FundingExtremityFactor) Name() string { return FactorFunding }

func (f *FundingExtremityFactor) Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	if !anyExchange(s, func(b models.ExchangeBreakdown) bool { return b.HasFunding }) {
		return models.CascadeFactor{}, false
	}
	score := clampScore(math.Abs(s.MedianFundingRate) / f.scale * 100)
	return models.CascadeFactor{Name: f.Name(), Score: score}, true
}

// --- open interest concentration and growth ---

// OpenInterestFactor blends venue concentration (Herfindahl over per-exchange
// OI shares) with inter-cycle OI growth. Growth state is plugin-owned.
type OpenInterestFactor struct {
	growthScale float64

	mu        sync.RWMutex
	prevTotal map[string]float64
}

func NewOpenInterestFactor(cfg Config) *OpenInterestFactor {
	return &OpenInterestFactor{
		growthScale: cfg.OIGrowthScale,
		prevTotal:   make(map[string]float64),
	}
}

func (f *OpenInterestFactor) Name() string { return FactorOpenInterest }

func (f *OpenInterestFactor) Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	conc, ok := concentration(s)
	if !ok {
		return models.CascadeFactor{}, false
	}

	f.mu.RLock()
	prev, hasPrev := f.prevTotal[s.Symbol]
	f.mu.RUnlock()

	score := conc * 100
	if hasPrev && prev > 0 {
		growth := (s.TotalOpenInterestUSD - prev) / prev
		growthScore := clampScore(math.Max(0, growth) / f.growthScale * 100)
		score = 0.6*score + 0.4*growthScore
	}
	return models.CascadeFactor{Name: f.Name(), Score: clampScore(score)}, true
}

func (f *OpenInterestFactor) Observe(s *models.AggregatedSnapshot) {
	if s.TotalOpenInterestUSD <= 0 {
		return
	}
	f.mu.Lock()
	f.prevTotal[s.Symbol] = s.TotalOpenInterestUSD
	f.mu.Unlock()
}

// --- cross-exchange price dispersion ---

// PriceDispersionFactor scores basis risk: the relative spread of mark prices
// across venues. Needs at least two reporting exchanges.
type PriceDispersionFactor struct {
	scale float64
}

func NewPriceDispersionFactor(cfg Config) *PriceDispersionFactor {
	return &PriceDispersionFactor{scale: cfg.DispersionScale}
}

func (f *PriceDispersionFactor) Name() string { return FactorDispersion }

func (f *PriceDispersionFactor) Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, b := range s.Exchanges {
		if !b.HasMarkPrice || b.MarkPrice <= 0 {
			continue
		}
		lo = math.Min(lo, b.MarkPrice)
		hi = math.Max(hi, b.MarkPrice)
		n++
	}
	if n < 2 || s.MedianMarkPrice <= 0 {
		return models.CascadeFactor{}, false
	}
	rel := (hi - lo) / s.MedianMarkPrice
	return models.CascadeFactor{Name: f.Name(), Score: clampScore(rel / f.scale * 100)}, true
}

// --- liquidation trigger proximity ---

// LiquidationProximityFactor scores how close the estimated liquidation
// trigger sits to the current mark price. Crowding (funding extremity plus
// venue concentration) pulls the estimated trigger closer.
type LiquidationProximityFactor struct {
	cfg Config
}

func NewLiquidationProximityFactor(cfg Config) *LiquidationProximityFactor {
	return &LiquidationProximityFactor{cfg: cfg}
}

func (f *LiquidationProximityFactor) Name() string { return FactorProximity }

func (f *LiquidationProximityFactor) Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	if s.MedianMarkPrice <= 0 {
		return models.CascadeFactor{}, false
	}
	if !anyExchange(s, func(b models.ExchangeBreakdown) bool { return b.HasOpenInterest || b.HasFunding }) {
		return models.CascadeFactor{}, false
	}
	d := EstimateTriggerDistance(s, f.cfg)
	score := (1 - d/f.cfg.BaseLiquidationDistance) * 100
	return models.CascadeFactor{Name: f.Name(), Score: clampScore(score)}, true
}

// EstimateTriggerDistance infers the fractional distance from mark price to
// the nearest liquidation cluster. It starts from the configured base
// maintenance distance and tightens it as positioning gets more crowded.
// Shared by the proximity factor and the prediction's trigger price.
func EstimateTriggerDistance(s *models.AggregatedSnapshot, cfg Config) float64 {
	fundingCrowd := math.Min(1, math.Abs(s.MedianFundingRate)/cfg.FundingScale)
	conc, ok := concentration(s)
	if !ok {
		conc = 0
	}
	crowding := 0.5*fundingCrowd + 0.5*conc
	return cfg.BaseLiquidationDistance * (1 - 0.6*crowding)
}

// --- realized volatility ---

// RealizedVolatilityFactor keeps a rolling window of cross-exchange median
// mark prices per symbol and scores the stdev of log returns over it.
type RealizedVolatilityFactor struct {
	scale  float64
	window int

	mu     sync.RWMutex
	prices map[string][]float64
}

func NewRealizedVolatilityFactor(cfg Config) *RealizedVolatilityFactor {
	return &RealizedVolatilityFactor{
		scale:  cfg.VolatilityScale,
		window: cfg.VolatilityWindow,
		prices: make(map[string][]float64),
	}
}

func (f *RealizedVolatilityFactor) Name() string { return FactorVolatility }

func (f *RealizedVolatilityFactor) Compute(s *models.AggregatedSnapshot) (models.CascadeFactor, bool) {
	f.mu.RLock()
	hist := f.prices[s.Symbol]
	f.mu.RUnlock()

	if len(hist) < 3 {
		return models.CascadeFactor{}, false
	}

	returns := make([]float64, 0, len(hist)-1)
	for i := 1; i < len(hist); i++ {
		returns = append(returns, math.Log(hist[i]/hist[i-1]))
	}
	sigma := stdev(returns)
	return models.CascadeFactor{Name: f.Name(), Score: clampScore(sigma / f.scale * 100)}, true
}

func (f *RealizedVolatilityFactor) Observe(s *models.AggregatedSnapshot) {
	if s.MedianMarkPrice <= 0 {
		return
	}
	f.mu.Lock()
	hist := append(f.prices[s.Symbol], s.MedianMarkPrice)
	if len(hist) > f.window {
		hist = hist[len(hist)-f.window:]
	}
	f.prices[s.Symbol] = hist
	f.mu.Unlock()
}

// --- helpers ---

// concentration returns the normalized Herfindahl index over per-exchange OI
// shares, in [0,1]. A single reporting venue counts as fully concentrated.
func concentration(s *models.AggregatedSnapshot) (float64, bool) {
	total := 0.0
	n := 0
	for _, b := range s.Exchanges {
		if b.HasOpenInterest && b.OpenInterestUSD > 0 {
			total += b.OpenInterestUSD
			n++
		}
	}
	if n == 0 || total <= 0 {
		return 0, false
	}
	if n == 1 {
		return 1, true
	}
	hhi := 0.0
	for _, b := range s.Exchanges {
		if b.HasOpenInterest && b.OpenInterestUSD > 0 {
			share := b.OpenInterestUSD / total
			hhi += share * share
		}
	}
	min := 1 / float64(n)
	return (hhi - min) / (1 - min), true
}

func anyExchange(s *models.AggregatedSnapshot, pred func(models.ExchangeBreakdown) bool) bool {
	for _, b := range s.Exchanges {
		if pred(b) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}
