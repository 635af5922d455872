package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
)

const (
	eventsTable = "cascade_events"
	riskTable   = "risk_history"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ` + eventsTable + ` (
		event_id String,
		symbol LowCardinality(String),
		direction LowCardinality(String),
		start_time DateTime64(3),
		end_time DateTime64(3),
		price_change_pct Float64,
		liquidation_volume_usd Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, start_time, event_id)`,

	`CREATE TABLE IF NOT EXISTS ` + riskTable + ` (
		ts DateTime64(3),
		symbol LowCardinality(String),
		risk_score UInt8,
		raw_score Float64,
		risk_level LowCardinality(String)
	) ENGINE = MergeTree
	ORDER BY (ts, symbol)
	TTL toDateTime(ts) + INTERVAL 90 DAY`,
}

// ClickHouseEventStore implements EventStore on ClickHouse. Cascade events
// are keyed by their natural id on a ReplacingMergeTree, so re-detecting the
// same cascade collapses to a single row.
type ClickHouseEventStore struct {
	db *sql.DB
}

// NewClickHouseEventStore creates the ClickHouse-backed event store.
func NewClickHouseEventStore(db *sql.DB) domrepo.EventStore {
	return &ClickHouseEventStore{db: db}
}

func (s *ClickHouseEventStore) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseEventStore) InsertCascadeEvent(ctx context.Context, ev *models.CascadeEvent) (string, error) {
	id := ev.ID()
	q := fmt.Sprintf(`INSERT INTO %s
		(event_id, symbol, direction, start_time, end_time, price_change_pct, liquidation_volume_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, eventsTable)
	_, err := s.db.ExecContext(ctx, q,
		id,
		ev.Symbol,
		string(ev.Direction),
		time.UnixMilli(ev.StartTime).UTC(),
		time.UnixMilli(ev.EndTime).UTC(),
		ev.PriceChangePct,
		ev.LiquidationVolumeUSD,
	)
	if err != nil {
		return "", fmt.Errorf("insert cascade event %s: %w", id, err)
	}
	return id, nil
}

func (s *ClickHouseEventStore) GetCascadeEvents(ctx context.Context, symbol string, start, end int64) ([]*models.CascadeEvent, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT symbol, direction, start_time, end_time, price_change_pct, liquidation_volume_usd FROM `)
	sb.WriteString(eventsTable)
	sb.WriteString(` FINAL WHERE start_time >= ? AND start_time <= ?`)
	args := []interface{}{time.UnixMilli(start).UTC(), time.UnixMilli(end).UTC()}
	if symbol != "" {
		sb.WriteString(` AND symbol = ?`)
		args = append(args, symbol)
	}
	sb.WriteString(` ORDER BY start_time ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query cascade events: %w", err)
	}
	defer rows.Close()

	var events []*models.CascadeEvent
	for rows.Next() {
		var (
			ev        models.CascadeEvent
			direction string
			startTime time.Time
			endTime   time.Time
		)
		if err := rows.Scan(&ev.Symbol, &direction, &startTime, &endTime, &ev.PriceChangePct, &ev.LiquidationVolumeUSD); err != nil {
			return nil, fmt.Errorf("scan cascade event: %w", err)
		}
		ev.Direction = models.Direction(direction)
		ev.StartTime = startTime.UnixMilli()
		ev.EndTime = endTime.UnixMilli()
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (s *ClickHouseEventStore) InsertRiskHistory(ctx context.Context, risks []*models.CascadeRisk) error {
	if len(risks) == 0 {
		return nil
	}
	values := make([]string, 0, len(risks))
	args := make([]interface{}, 0, len(risks)*5)
	for _, r := range risks {
		if r == nil || r.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args,
			time.UnixMilli(r.Timestamp).UTC(),
			r.Symbol,
			uint8(r.RiskScore),
			r.RawScore,
			string(r.RiskLevel),
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, risk_score, raw_score, risk_level) VALUES %s",
		riskTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert risk history: %w", err)
	}
	return nil
}

func (s *ClickHouseEventStore) GetRiskHistory(ctx context.Context, start, end int64) ([]*models.RiskObservation, error) {
	q := fmt.Sprintf(`SELECT symbol, raw_score, ts FROM %s WHERE ts >= ? AND ts <= ? ORDER BY ts ASC`, riskTable)
	rows, err := s.db.QueryContext(ctx, q, time.UnixMilli(start).UTC(), time.UnixMilli(end).UTC())
	if err != nil {
		return nil, fmt.Errorf("query risk history: %w", err)
	}
	defer rows.Close()

	var obs []*models.RiskObservation
	for rows.Next() {
		var (
			o  models.RiskObservation
			ts time.Time
		)
		if err := rows.Scan(&o.Symbol, &o.RawScore, &ts); err != nil {
			return nil, fmt.Errorf("scan risk observation: %w", err)
		}
		o.Timestamp = ts.UnixMilli()
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}

func (s *ClickHouseEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseEventStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}
