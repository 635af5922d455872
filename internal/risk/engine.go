package risk

import (
	"math"

	"github.com/Abdr007/prism-ai-sub001/internal/calibration"
	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// Engine turns an aggregated snapshot into a cascade risk result. Scoring is
// a pure function of (snapshot, calibration params, config): no clock reads
// happen inside the math, so identical inputs always produce identical output.
type Engine struct {
	cfg     Config
	calib   *calibration.Store
	lgr     *logger.Logger
	plugins []FactorPlugin
}

// NewEngine creates a scoring engine with the standard factor set registered
// in order.
func NewEngine(cfg Config, calib *calibration.Store, lgr *logger.Logger) *Engine {
	e := &Engine{cfg: cfg, calib: calib, lgr: lgr}
	e.Register(NewFundingExtremityFactor(cfg))
	e.Register(NewOpenInterestFactor(cfg))
	e.Register(NewPriceDispersionFactor(cfg))
	e.Register(NewLiquidationProximityFactor(cfg))
	e.Register(NewRealizedVolatilityFactor(cfg))
	return e
}

// NewEngineWithPlugins creates an engine with an explicit plugin set, mainly
// for tests and backtests.
func NewEngineWithPlugins(cfg Config, calib *calibration.Store, lgr *logger.Logger, plugins ...FactorPlugin) *Engine {
	return &Engine{cfg: cfg, calib: calib, lgr: lgr, plugins: plugins}
}

// Register appends a factor plugin. Registration order fixes output order.
func (e *Engine) Register(p FactorPlugin) {
	e.plugins = append(e.plugins, p)
}

// Observe forwards the snapshot to stateful plugins after a cycle's scoring
// is done, keeping Compute itself a pure read.
func (e *Engine) Observe(s *models.AggregatedSnapshot) {
	for _, p := range e.plugins {
		if o, ok := p.(Observer); ok {
			o.Observe(s)
		}
	}
}

// Score produces the risk result for one symbol, or nil when the snapshot
// carries nothing scorable. at is the output timestamp, stamped by the cycle.
func (e *Engine) Score(s *models.AggregatedSnapshot, at int64) *models.CascadeRisk {
	if s == nil || len(s.Exchanges) == 0 {
		return nil
	}

	factors := make([]models.CascadeFactor, 0, len(e.plugins))
	var weighted, totalWeight float64
	for _, p := range e.plugins {
		f, ok := p.Compute(s)
		if !ok {
			continue
		}
		w := e.cfg.Weights[f.Name]
		if w <= 0 {
			continue
		}
		f.Weight = w
		factors = append(factors, f)
		weighted += w * f.Score
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil
	}

	// Weights renormalize over the factors actually computable this cycle,
	// so a missing factor narrows the evidence instead of dragging the
	// score toward zero.
	raw := clampScore(weighted / totalWeight)
	score := int(math.Round(raw))

	risk := &models.CascadeRisk{
		Symbol:    s.Symbol,
		RiskScore: score,
		RawScore:  raw,
		RiskLevel: LevelFor(score),
		Factors:   factors,
		Timestamp: at,
	}
	risk.Prediction = e.buildPrediction(s, raw)
	return risk
}

// buildPrediction emits a directional call when the score clears the
// eligibility threshold and the funding imbalance has an unambiguous sign.
func (e *Engine) buildPrediction(s *models.AggregatedSnapshot, raw float64) *models.CascadePrediction {
	if raw < e.cfg.PredictionThreshold {
		return nil
	}
	if s.MedianFundingRate == 0 || s.MedianMarkPrice <= 0 {
		return nil
	}

	// Positive funding: longs pay, the crowded side is long, the cascade
	// risk is downward.
	direction := models.DirectionLongSqueeze
	if s.MedianFundingRate < 0 {
		direction = models.DirectionShortSqueeze
	}

	params := e.calib.Current()
	d := EstimateTriggerDistance(s, e.cfg)
	trigger := s.MedianMarkPrice * (1 - d)
	if direction == models.DirectionShortSqueeze {
		trigger = s.MedianMarkPrice * (1 + d)
	}

	return &models.CascadePrediction{
		Direction:          direction,
		Probability:        calibration.Probability(raw, *params),
		EstimatedImpactUSD: s.TotalOpenInterestUSD * e.cfg.ParticipationRate * raw / 100,
		TriggerPrice:       trigger,
		TriggerDistancePct: d * 100,
		TimeWindow:         e.timeWindow(s),
	}
}

// timeWindow buckets the expected horizon by how fast the funding imbalance
// is likely to resolve: the more extreme the crowding, the sooner.
func (e *Engine) timeWindow(s *models.AggregatedSnapshot) string {
	extremity := math.Abs(s.MedianFundingRate) / e.cfg.FundingScale
	switch {
	case extremity >= 0.75:
		return "1-4h"
	case extremity >= 0.4:
		return "4-12h"
	default:
		return "12-48h"
	}
}
