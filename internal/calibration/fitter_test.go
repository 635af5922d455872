package calibration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

type mockEventStore struct {
	obs    []*models.RiskObservation
	events map[string][]*models.CascadeEvent
}

func (m *mockEventStore) Init(context.Context) error { return nil }

func (m *mockEventStore) InsertCascadeEvent(_ context.Context, ev *models.CascadeEvent) (string, error) {
	return ev.ID(), nil
}

func (m *mockEventStore) GetCascadeEvents(_ context.Context, symbol string, start, end int64) ([]*models.CascadeEvent, error) {
	var out []*models.CascadeEvent
	for _, ev := range m.events[symbol] {
		if ev.StartTime >= start && ev.StartTime <= end {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockEventStore) InsertRiskHistory(context.Context, []*models.CascadeRisk) error { return nil }

func (m *mockEventStore) GetRiskHistory(_ context.Context, start, end int64) ([]*models.RiskObservation, error) {
	var out []*models.RiskObservation
	for _, o := range m.obs {
		if o.Timestamp >= start && o.Timestamp <= end {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockEventStore) Health(context.Context) error { return nil }
func (m *mockEventStore) Close() error                 { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordCycle(float64, int)        {}
func (nopMetrics) RecordRejection(string, string)  {}
func (nopMetrics) RecordRiskScore(string, float64) {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestRefitSkipsOnInsufficientSamples(t *testing.T) {
	store := NewStore()
	before := store.Current()
	es := &mockEventStore{events: map[string][]*models.CascadeEvent{}}

	cfg := DefaultFitterConfig()
	cfg.MinSamples = 10
	f := NewFitter(cfg, store, es, testLogger(t), nopMetrics{})

	report, err := f.Refit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, report.SampleCount)
	assert.Same(t, before, store.Current(), "previous parameters remain in force")
	assert.Equal(t, report, f.LastReport())
}

func TestRefitPublishesNewParams(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	hour := int64(time.Hour / time.Millisecond)

	es := &mockEventStore{events: map[string][]*models.CascadeEvent{}}
	// High scores followed by cascades, low scores not.
	for i := 0; i < 100; i++ {
		ts := now.UnixMilli() - int64(i+30)*hour
		es.obs = append(es.obs,
			&models.RiskObservation{Symbol: "BTCUSDT", RawScore: 80, Timestamp: ts},
			&models.RiskObservation{Symbol: "ETHUSDT", RawScore: 10, Timestamp: ts},
		)
		es.events["BTCUSDT"] = append(es.events["BTCUSDT"], &models.CascadeEvent{
			Symbol:    "BTCUSDT",
			Direction: models.DirectionLongSqueeze,
			StartTime: ts + hour,
			EndTime:   ts + hour + 600000,
		})
	}

	store := NewStore()
	cfg := DefaultFitterConfig()
	cfg.MinSamples = 50
	f := NewFitter(cfg, store, es, testLogger(t), nopMetrics{})
	f.SetClock(func() time.Time { return now })

	report, err := f.Refit(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 200, report.SampleCount)
	require.NotNil(t, report.Params)

	cur := store.Current()
	assert.Equal(t, report.Params, cur)
	assert.Greater(t, cur.Slope, 0.0, "higher score must mean higher probability")
	assert.Len(t, cur.Bins, cfg.BinCount)

	// The published mapping separates the two score populations.
	assert.Greater(t, Probability(80, *cur), Probability(10, *cur))
}

func TestRefitExcludesOpenHorizonObservations(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	hour := int64(time.Hour / time.Millisecond)

	es := &mockEventStore{events: map[string][]*models.CascadeEvent{}}
	es.obs = append(es.obs,
		// Horizon still open; whether a cascade follows is unknowable yet.
		&models.RiskObservation{Symbol: "BTCUSDT", RawScore: 90, Timestamp: now.UnixMilli() - hour},
		// Horizon closes exactly at now; outcome is decided.
		&models.RiskObservation{Symbol: "BTCUSDT", RawScore: 40, Timestamp: now.UnixMilli() - 24*hour},
		&models.RiskObservation{Symbol: "BTCUSDT", RawScore: 50, Timestamp: now.UnixMilli() - 48*hour},
	)

	store := NewStore()
	cfg := DefaultFitterConfig()
	cfg.MinSamples = 1
	f := NewFitter(cfg, store, es, testLogger(t), nopMetrics{})
	f.SetClock(func() time.Time { return now })

	report, err := f.Refit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.SampleCount,
		"an observation with an open horizon must not train as a negative")
}

func TestRefitOutcomeHorizon(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	hour := int64(time.Hour / time.Millisecond)

	es := &mockEventStore{events: map[string][]*models.CascadeEvent{}}
	ts := now.UnixMilli() - 100*hour
	es.obs = append(es.obs, &models.RiskObservation{Symbol: "BTCUSDT", RawScore: 70, Timestamp: ts})
	// Cascade outside the 24h horizon must not count as a positive.
	es.events["BTCUSDT"] = []*models.CascadeEvent{{
		Symbol: "BTCUSDT", Direction: models.DirectionShortSqueeze, StartTime: ts + 30*hour,
	}}

	store := NewStore()
	cfg := DefaultFitterConfig()
	cfg.MinSamples = 1
	f := NewFitter(cfg, store, es, testLogger(t), nopMetrics{})
	f.SetClock(func() time.Time { return now })

	report, err := f.Refit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report.Params)

	// One sample, zero positives: conservative extreme-slope fit.
	assert.Equal(t, degenerateSlope, report.Params.Slope)
	assert.Less(t, Probability(70, *report.Params), 0.5)
}
