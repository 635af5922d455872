package repository

import (
	"context"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// ExchangeAdapter polls one derivatives exchange for the configured symbols.
// An adapter may fail for a cycle without failing the cycle.
type ExchangeAdapter interface {
	Name() string
	GetAllData(ctx context.Context, symbols []string) (*models.ExchangeData, error)
}

// Aggregator folds validated per-exchange bundles into per-symbol snapshots.
// Symbols with no valid contribution from any exchange produce no snapshot.
type Aggregator interface {
	Aggregate(data []*models.ExchangeData, symbols []string) []*models.AggregatedSnapshot
}

// EventStore persists cascade ground truth and the per-cycle raw scores the
// calibration fitter joins against it.
type EventStore interface {
	Init(ctx context.Context) error // ensure tables
	// InsertCascadeEvent is idempotent on the event's natural key; inserting
	// a duplicate is a silent no-op. Returns the natural key.
	InsertCascadeEvent(ctx context.Context, ev *models.CascadeEvent) (string, error)
	// GetCascadeEvents returns events ordered by start_time ascending.
	GetCascadeEvents(ctx context.Context, symbol string, start, end int64) ([]*models.CascadeEvent, error)
	InsertRiskHistory(ctx context.Context, risks []*models.CascadeRisk) error
	GetRiskHistory(ctx context.Context, start, end int64) ([]*models.RiskObservation, error)
	Health(ctx context.Context) error
	Close() error
}

// RiskPublisher delivers scoring output and anomaly events to downstream
// consumers (persistence, alerting, dashboards).
type RiskPublisher interface {
	PublishRisk(ctx context.Context, r *models.CascadeRisk) error
	PublishRiskBatch(ctx context.Context, risks []*models.CascadeRisk) error
	PublishAnomaly(ctx context.Context, ev *models.AnomalyEvent) error
	Close() error
}

// LiquidationStream is a live force-order feed from one exchange.
type LiquidationStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.LiquidationRecord, <-chan error)
	Close() error
	IsConnected() bool
}

// Metrics is the observability sink shared by all components.
type Metrics interface {
	RecordCycle(seconds float64, symbolsScored int)
	RecordRejection(exchange, rule string)
	RecordRiskScore(symbol string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
