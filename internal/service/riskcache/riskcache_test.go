package riskcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	"github.com/Abdr007/prism-ai-sub001/pkg/cache"
)

func TestPutBatchAndGet(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	risks := []*models.CascadeRisk{
		{Symbol: "BTC", RiskScore: 72, RawScore: 71.6, RiskLevel: models.RiskHigh, Timestamp: 1700000000000},
		{Symbol: "ETH", RiskScore: 18, RawScore: 18.4, RiskLevel: models.RiskLow, Timestamp: 1700000000000},
	}
	require.NoError(t, s.PutBatch(ctx, risks))

	got, err := s.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 72, got.RiskScore)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
}

func TestGetMissing(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	_, err := s.Get(context.Background(), "DOGE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllSkipsMissing(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	require.NoError(t, s.PutBatch(ctx, []*models.CascadeRisk{
		{Symbol: "BTC", RiskScore: 40, RiskLevel: models.RiskElevated},
	}))

	all, err := s.GetAll(ctx, []string{"BTC", "SOL"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "BTC", all[0].Symbol)
}

func TestPutBatchEmpty(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	assert.NoError(t, s.PutBatch(context.Background(), nil))
}
