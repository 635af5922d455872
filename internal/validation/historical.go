package validation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// HistoricalGate validates backfill batches. Unlike the live path it does not
// reject old timestamps; instead it rejects records stamped in the future
// beyond the clock-skew tolerance, and enforces the sequential mark-price
// jump rule per symbol.
type HistoricalGate struct {
	gate         *Gate
	lastAccepted map[string]float64 // per-symbol last accepted mark price
}

// NewHistoricalGate wraps a Gate for the backfill path.
func NewHistoricalGate(g *Gate) *HistoricalGate {
	return &HistoricalGate{
		gate:         g,
		lastAccepted: make(map[string]float64),
	}
}

// ValidateMarkPriceSeries filters a historical mark-price batch. Records are
// sorted by timestamp, then each is compared against the last accepted value
// for its symbol; a jump above MaxSequentialJump rejects the record, and a
// rejected record never becomes the new reference.
func (h *HistoricalGate) ValidateMarkPriceSeries(records []models.MarkPriceRecord) []models.MarkPriceRecord {
	sorted := make([]models.MarkPriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	out := make([]models.MarkPriceRecord, 0, len(sorted))
	for i := range sorted {
		r := &sorted[i]
		if !h.validateOne(r) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// Reset clears the per-symbol jump references, e.g. between backfill runs.
func (h *HistoricalGate) Reset() {
	h.lastAccepted = make(map[string]float64)
}

func (h *HistoricalGate) validateOne(r *models.MarkPriceRecord) bool {
	g := h.gate

	if !finite(r.MarkPrice) {
		g.reject(r.Exchange, r.Symbol, "markPrice", r.MarkPrice, models.RuleNotFinite, "mark price is not finite")
		return false
	}
	if !finite(r.IndexPrice) {
		g.reject(r.Exchange, r.Symbol, "indexPrice", r.IndexPrice, models.RuleNotFinite, "index price is not finite")
		return false
	}

	if skew := time.Duration(r.Timestamp-g.now().UnixMilli()) * time.Millisecond; skew > g.cfg.ClockSkewTolerance {
		g.reject(r.Exchange, r.Symbol, "timestamp", float64(r.Timestamp), models.RuleFutureTimestamp,
			fmt.Sprintf("timestamp %s in the future, tolerance %s", skew, g.cfg.ClockSkewTolerance))
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

	if prev, ok := h.lastAccepted[r.Symbol]; ok && prev > 0 {
		jump := math.Abs(r.MarkPrice-prev) / prev
		if jump > g.cfg.MaxSequentialJump {
			g.reject(r.Exchange, r.Symbol, "markPrice", r.MarkPrice, models.RulePriceJump,
				fmt.Sprintf("price jump %.2f%% from last accepted %.4f", jump*100, prev))
			return false
		}
	}
	h.lastAccepted[r.Symbol] = r.MarkPrice
	return true
}
