package riskcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	"github.com/Abdr007/prism-ai-sub001/pkg/cache"
)

// ErrNotFound is returned when no risk result is cached for a symbol.
var ErrNotFound = errors.New("riskcache: symbol not found")

// Store keeps the latest per-symbol risk result for the API to serve without
// touching storage. Entries expire if the scoring cycle stops refreshing them.
// Values are stored as JSON strings so memory and Redis backends behave the
// same.
type Store struct {
	cache cache.Service
	ttl   time.Duration
}

// New creates a latest-risk store over any cache backend.
func New(c cache.Service, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// PutBatch stores one cycle's worth of results.
func (s *Store) PutBatch(ctx context.Context, risks []*models.CascadeRisk) error {
	for _, r := range risks {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal risk %s: %w", r.Symbol, err)
		}
		if err := s.cache.Set(ctx, riskKey(r.Symbol), string(data), s.ttl); err != nil {
			return fmt.Errorf("cache risk %s: %w", r.Symbol, err)
		}
	}
	return nil
}

// Get returns the latest risk for one symbol.
func (s *Store) Get(ctx context.Context, symbol string) (*models.CascadeRisk, error) {
	var raw string
	if err := s.cache.Get(ctx, riskKey(symbol), &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var r models.CascadeRisk
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode cached risk %s: %w", symbol, err)
	}
	return &r, nil
}

// GetAll returns the latest risk for every requested symbol, skipping symbols
// with no cached result.
func (s *Store) GetAll(ctx context.Context, symbols []string) ([]*models.CascadeRisk, error) {
	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = riskKey(sym)
	}
	byKey, err := s.cache.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CascadeRisk, 0, len(byKey))
	for _, sym := range symbols {
		raw, ok := byKey[riskKey(sym)]
		if !ok {
			continue
		}
		var r models.CascadeRisk
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			continue // stale or corrupt entry, refreshed next cycle
		}
		out = append(out, &r)
	}
	return out, nil
}

func riskKey(symbol string) string {
	return fmt.Sprintf("risk:latest:%s", symbol)
}
