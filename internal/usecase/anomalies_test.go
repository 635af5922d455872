package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

type mockPublisher struct {
	mu        sync.Mutex
	risks     []*models.CascadeRisk
	anomalies []*models.AnomalyEvent
	err       error
}

func (m *mockPublisher) PublishRisk(_ context.Context, r *models.CascadeRisk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.risks = append(m.risks, r)
	return m.err
}

func (m *mockPublisher) PublishRiskBatch(_ context.Context, risks []*models.CascadeRisk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.risks = append(m.risks, risks...)
	return m.err
}

func (m *mockPublisher) PublishAnomaly(_ context.Context, ev *models.AnomalyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anomalies = append(m.anomalies, ev)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func anomaly(rule string, ts int64) *models.AnomalyEvent {
	return &models.AnomalyEvent{
		Exchange: "binance", Symbol: "BTC", Field: "funding_rate",
		Rule: rule, Timestamp: ts,
	}
}

func TestAnomalyLogRecentNewestFirst(t *testing.T) {
	l := NewAnomalyLog(8, nil, testUsecaseLogger(t))
	for i := 0; i < 3; i++ {
		l.Record(anomaly(models.RuleStaleData, int64(i)))
	}

	got := l.Recent(10, nil)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].Timestamp)
	assert.Equal(t, int64(0), got[2].Timestamp)
}

func TestAnomalyLogWrapsAtCapacity(t *testing.T) {
	l := NewAnomalyLog(4, nil, testUsecaseLogger(t))
	for i := 0; i < 10; i++ {
		l.Record(anomaly(models.RuleNotFinite, int64(i)))
	}

	got := l.Recent(10, nil)
	require.Len(t, got, 4)
	assert.Equal(t, int64(9), got[0].Timestamp)
	assert.Equal(t, int64(6), got[3].Timestamp)
}

func TestAnomalyLogRuleFilter(t *testing.T) {
	l := NewAnomalyLog(16, nil, testUsecaseLogger(t))
	l.Record(anomaly(models.RuleStaleData, 1))
	l.Record(anomaly(models.RuleFundingOutOfRange, 2))
	l.Record(anomaly(models.RuleStaleData, 3))

	got := l.Recent(10, []string{models.RuleStaleData})
	require.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, models.RuleStaleData, ev.Rule)
	}
}

func TestAnomalyLogForwardsToPublisher(t *testing.T) {
	pub := &mockPublisher{}
	l := NewAnomalyLog(8, pub, testUsecaseLogger(t))
	l.Record(anomaly(models.RuleNegativeOI, 1))

	require.Len(t, pub.anomalies, 1)
	assert.Equal(t, models.RuleNegativeOI, pub.anomalies[0].Rule)
}

func TestAnomalyLogPublishFailureDoesNotPanic(t *testing.T) {
	pub := &mockPublisher{err: fmt.Errorf("broker down")}
	l := NewAnomalyLog(8, pub, testUsecaseLogger(t))
	l.Record(anomaly(models.RulePriceJump, 1))

	assert.Len(t, l.Recent(10, nil), 1, "event is retained even when publish fails")
}
