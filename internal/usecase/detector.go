package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// DetectorConfig tunes cascade event detection.
type DetectorConfig struct {
	// Window is how far back liquidations count toward one burst.
	Window time.Duration `yaml:"window" default:"300s"`
	// MinVolumeUSD is the liquidation volume a burst must reach.
	MinVolumeUSD float64 `yaml:"min_volume_usd" default:"10000000"`
	// MinPriceMovePct is the absolute price move a burst must produce.
	MinPriceMovePct float64 `yaml:"min_price_move_pct" default:"0.02"`
	// Cooldown suppresses re-detection of the same burst.
	Cooldown time.Duration `yaml:"cooldown" default:"900s"`
}

// DefaultDetectorConfig returns production detection thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Window:          5 * time.Minute,
		MinVolumeUSD:    10_000_000,
		MinPriceMovePct: 0.02,
		Cooldown:        15 * time.Minute,
	}
}

type liqWindow struct {
	records   []*models.LiquidationRecord
	lastEvent int64 // ms epoch of the last emitted event, 0 if none
}

// CascadeDetector turns the liquidation firehose into CascadeEvent ground
// truth. A cascade is a burst of same-side liquidations inside the window
// that both clears the volume floor and moves price past the threshold.
// Detection is idempotent: the event's natural key makes repeat inserts of
// the same burst a no-op in storage.
type CascadeDetector struct {
	cfg    DetectorConfig
	events domrepo.EventStore
	lgr    *logger.Logger

	mu      sync.Mutex
	windows map[string]*liqWindow
}

// NewCascadeDetector creates a detector writing to the given event store.
func NewCascadeDetector(cfg DetectorConfig, events domrepo.EventStore, lgr *logger.Logger) *CascadeDetector {
	return &CascadeDetector{
		cfg:     cfg,
		events:  events,
		lgr:     lgr,
		windows: make(map[string]*liqWindow),
	}
}

// Observe folds one liquidation into the symbol's window and emits a cascade
// event when the burst crosses both thresholds. Returns the emitted event, or
// nil when the burst is still below threshold or inside the cooldown.
func (d *CascadeDetector) Observe(ctx context.Context, r *models.LiquidationRecord) *models.CascadeEvent {
	if r == nil {
		return nil
	}

	d.mu.Lock()
	w := d.windows[r.Symbol]
	if w == nil {
		w = &liqWindow{}
		d.windows[r.Symbol] = w
	}

	cutoff := r.Timestamp - d.cfg.Window.Milliseconds()
	kept := w.records[:0]
	for _, rec := range w.records {
		if rec.Timestamp >= cutoff {
			kept = append(kept, rec)
		}
	}
	w.records = append(kept, r)

	ev := d.evaluate(w, r.Timestamp)
	if ev != nil {
		w.lastEvent = ev.StartTime
	}
	d.mu.Unlock()

	if ev == nil {
		return nil
	}

	id, err := d.events.InsertCascadeEvent(ctx, ev)
	if err != nil {
		d.lgr.Error("cascade event insert failed",
			logger.String("symbol", ev.Symbol),
			logger.Error(err))
		return ev
	}
	d.lgr.Info("cascade event detected",
		logger.String("event_id", id),
		logger.Float64("volume_usd", ev.LiquidationVolumeUSD),
		logger.Float64("price_change_pct", ev.PriceChangePct))
	return ev
}

// evaluate runs under the mutex.
func (d *CascadeDetector) evaluate(w *liqWindow, nowMs int64) *models.CascadeEvent {
	if len(w.records) < 2 {
		return nil
	}
	if w.lastEvent != 0 && nowMs-w.lastEvent < d.cfg.Cooldown.Milliseconds() {
		return nil
	}

	var sellUSD, buyUSD float64
	for _, rec := range w.records {
		if rec.Side == models.SideSell {
			sellUSD += rec.USDValue
		} else {
			buyUSD += rec.USDValue
		}
	}
	total := sellUSD + buyUSD
	if total < d.cfg.MinVolumeUSD {
		return nil
	}

	first, last := w.records[0], w.records[len(w.records)-1]
	if first.Price <= 0 {
		return nil
	}
	movePct := (last.Price - first.Price) / first.Price
	if math.Abs(movePct) < d.cfg.MinPriceMovePct {
		return nil
	}

	// SELL force orders close longs, so a sell-dominated burst is a long
	// squeeze and should coincide with a downward move.
	direction := models.DirectionShortSqueeze
	if sellUSD >= buyUSD {
		direction = models.DirectionLongSqueeze
	}

	return &models.CascadeEvent{
		Symbol:               first.Symbol,
		Direction:            direction,
		StartTime:            first.Timestamp,
		EndTime:              last.Timestamp,
		PriceChangePct:       movePct,
		LiquidationVolumeUSD: total,
	}
}
