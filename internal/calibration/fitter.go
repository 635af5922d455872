package calibration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// FitterConfig controls the periodic refit.
type FitterConfig struct {
	Lookback       time.Duration // history window read per refit
	OutcomeHorizon time.Duration // cascade within this window after a score counts as a positive
	MinSamples     int           // below this the refit is skipped
	BinCount       int
	Confidence     float64
}

// DefaultFitterConfig returns the production refit settings.
func DefaultFitterConfig() FitterConfig {
	return FitterConfig{
		Lookback:       30 * 24 * time.Hour,
		OutcomeHorizon: 24 * time.Hour,
		MinSamples:     200,
		BinCount:       10,
		Confidence:     0.95,
	}
}

// Fitter runs the batch calibration refit: it joins recorded raw scores
// against detected cascade events, refits the logistic mapping and bin table,
// and publishes the result atomically. A failed or skipped refit leaves the
// previous parameters in force.
type Fitter struct {
	cfg     FitterConfig
	store   *Store
	events  domrepo.EventStore
	lgr     *logger.Logger
	metrics domrepo.Metrics
	now     func() time.Time

	mu         sync.Mutex
	lastReport *models.CalibrationReport
}

// NewFitter creates a calibration fitter.
func NewFitter(cfg FitterConfig, store *Store, events domrepo.EventStore, lgr *logger.Logger, metrics domrepo.Metrics) *Fitter {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultFitterConfig().MinSamples
	}
	if cfg.BinCount <= 0 {
		cfg.BinCount = DefaultFitterConfig().BinCount
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = DefaultFitterConfig().Confidence
	}
	return &Fitter{
		cfg:     cfg,
		store:   store,
		events:  events,
		lgr:     lgr,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock overrides the fitter clock, for tests.
func (f *Fitter) SetClock(now func() time.Time) {
	if now != nil {
		f.now = now
	}
}

// Refit performs one calibration pass. The returned report describes the
// outcome either way; the error is reserved for repository failures.
func (f *Fitter) Refit(ctx context.Context) (*models.CalibrationReport, error) {
	end := f.now()
	start := end.Add(-f.cfg.Lookback)

	samples, err := f.collectSamples(ctx, start, end)
	if err != nil {
		f.metrics.RecordError("calibration_read")
		return nil, fmt.Errorf("collect calibration samples: %w", err)
	}

	if len(samples) < f.cfg.MinSamples {
		report := f.skip(end, len(samples), fmt.Sprintf("need %d samples, have %d", f.cfg.MinSamples, len(samples)))
		f.lgr.Warn("calibration refit skipped",
			logger.Int("samples", len(samples)),
			logger.Int("min_samples", f.cfg.MinSamples),
		)
		return report, nil
	}

	slope, intercept, err := FitLogistic(samples)
	if err != nil {
		report := f.skip(end, len(samples), err.Error())
		f.metrics.RecordError("calibration_fit")
		f.lgr.Warn("calibration fit failed, previous parameters remain", logger.Error(err))
		return report, nil
	}

	params := &models.CalibrationParams{
		Slope:       slope,
		Intercept:   intercept,
		Bins:        BuildBins(samples, f.cfg.BinCount),
		FittedAt:    end.UnixMilli(),
		SampleCount: len(samples),
	}
	if err := f.store.Publish(params); err != nil {
		report := f.skip(end, len(samples), err.Error())
		f.metrics.RecordError("calibration_publish")
		f.lgr.Error("refusing corrupt calibration parameters", logger.Error(err))
		return report, nil
	}

	report := &models.CalibrationReport{
		Timestamp:   end.UnixMilli(),
		SampleCount: len(samples),
		Params:      params,
	}
	f.setLastReport(report)
	f.lgr.Info("calibration refit published",
		logger.Int("samples", len(samples)),
		logger.Float64("slope", slope),
		logger.Float64("intercept", intercept),
	)
	return report, nil
}

// LastReport returns the most recent refit report, or nil before the first run.
func (f *Fitter) LastReport() *models.CalibrationReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReport
}

// collectSamples labels each recorded raw score by whether a cascade event
// started within the outcome horizon after it. Observations whose horizon
// has not closed by end are excluded: their outcome is still unknown, and
// counting them as negatives would drag calibrated probabilities down.
func (f *Fitter) collectSamples(ctx context.Context, start, end time.Time) ([]Sample, error) {
	obs, err := f.events.GetRiskHistory(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string][]*models.RiskObservation)
	for _, o := range obs {
		bySymbol[o.Symbol] = append(bySymbol[o.Symbol], o)
	}

	horizonMs := f.cfg.OutcomeHorizon.Milliseconds()
	resolvedBy := end.UnixMilli() - horizonMs
	samples := make([]Sample, 0, len(obs))
	for symbol, symObs := range bySymbol {
		events, err := f.events.GetCascadeEvents(ctx, symbol, start.UnixMilli(), end.UnixMilli()+horizonMs)
		if err != nil {
			return nil, err
		}
		for _, o := range symObs {
			if o.Timestamp > resolvedBy {
				continue
			}
			outcome := 0
			for _, ev := range events {
				if ev.StartTime > o.Timestamp && ev.StartTime <= o.Timestamp+horizonMs {
					outcome = 1
					break
				}
			}
			samples = append(samples, Sample{RawScore: o.RawScore, Outcome: outcome})
		}
	}
	return samples, nil
}

func (f *Fitter) skip(at time.Time, count int, reason string) *models.CalibrationReport {
	report := &models.CalibrationReport{
		Timestamp:   at.UnixMilli(),
		SampleCount: count,
		Skipped:     true,
		Reason:      reason,
	}
	f.setLastReport(report)
	return report
}

func (f *Fitter) setLastReport(r *models.CalibrationReport) {
	f.mu.Lock()
	f.lastReport = r
	f.mu.Unlock()
}
