package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/risk"
	"github.com/Abdr007/prism-ai-sub001/internal/service/riskcache"
	"github.com/Abdr007/prism-ai-sub001/internal/validation"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// RiskCycle drives the fixed-interval scoring loop: fetch from every exchange
// in parallel, validate, aggregate, score, then persist, publish, and cache.
// Cycles run strictly one at a time; a cycle that overruns the interval delays
// the next tick rather than overlapping it.
type RiskCycle struct {
	adapters   []domrepo.ExchangeAdapter
	gate       *validation.Gate
	aggregator domrepo.Aggregator
	engine     *risk.Engine
	events     domrepo.EventStore
	publisher  domrepo.RiskPublisher
	cache      *riskcache.Store
	metrics    domrepo.Metrics
	lgr        *logger.Logger

	symbols  []string
	interval time.Duration
	workers  int

	cancel context.CancelFunc
	done   chan struct{}
}

// CycleOption configures a RiskCycle.
type CycleOption func(*RiskCycle)

// WithWorkers bounds the per-symbol scoring pool.
func WithWorkers(n int) CycleOption {
	return func(c *RiskCycle) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewRiskCycle wires the scoring loop.
func NewRiskCycle(
	adapters []domrepo.ExchangeAdapter,
	gate *validation.Gate,
	aggregator domrepo.Aggregator,
	engine *risk.Engine,
	events domrepo.EventStore,
	publisher domrepo.RiskPublisher,
	cache *riskcache.Store,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	symbols []string,
	interval time.Duration,
	opts ...CycleOption,
) *RiskCycle {
	c := &RiskCycle{
		adapters:   adapters,
		gate:       gate,
		aggregator: aggregator,
		engine:     engine,
		events:     events,
		publisher:  publisher,
		cache:      cache,
		metrics:    metrics,
		lgr:        lgr,
		symbols:    symbols,
		interval:   interval,
		workers:    4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the loop. The first cycle runs immediately.
func (c *RiskCycle) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		timer := time.NewTimer(0)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				c.RunOnce(ctx)
				timer.Reset(c.interval)
			}
		}
	}()
}

// Stop cancels the loop and waits for any in-flight cycle to finish.
func (c *RiskCycle) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
}

// RunOnce executes a single cycle. Errors are reported through metrics and
// logs, never returned: the scheduler always continues.
func (c *RiskCycle) RunOnce(ctx context.Context) {
	start := time.Now()

	raw := c.fetchAll(ctx)
	validated := c.gate.ValidateBatch(raw)
	snapshots := c.aggregator.Aggregate(validated, c.symbols)
	risks := c.scoreAll(snapshots, start.UnixMilli())

	c.deliver(ctx, risks)

	c.metrics.RecordCycle(time.Since(start).Seconds(), len(risks))
	c.lgr.Debug("cycle complete",
		logger.Int("exchanges", len(validated)),
		logger.Int("symbols_scored", len(risks)),
		logger.Duration("took", time.Since(start)))
}

// fetchAll polls every adapter concurrently. A failed adapter contributes
// nothing this cycle.
func (c *RiskCycle) fetchAll(ctx context.Context) []*models.ExchangeData {
	results := make([]*models.ExchangeData, len(c.adapters))
	var wg sync.WaitGroup
	for i, adapter := range c.adapters {
		wg.Add(1)
		go func(i int, a domrepo.ExchangeAdapter) {
			defer wg.Done()
			t0 := time.Now()
			data, err := a.GetAllData(ctx, c.symbols)
			c.metrics.RecordLatency("fetch_"+a.Name(), time.Since(t0).Seconds())
			if err != nil {
				c.metrics.RecordError("fetch_" + a.Name())
				c.lgr.Warn("exchange fetch failed",
					logger.String("exchange", a.Name()),
					logger.Error(err))
				return
			}
			results[i] = data
		}(i, adapter)
	}
	wg.Wait()

	out := results[:0]
	for _, d := range results {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// scoreAll scores snapshots on a bounded worker pool, then lets stateful
// factors observe the cycle's snapshots so rolling state stays out of the
// scoring path.
func (c *RiskCycle) scoreAll(snapshots []*models.AggregatedSnapshot, atMs int64) []*models.CascadeRisk {
	if len(snapshots) == 0 {
		return nil
	}

	workers := c.workers
	if workers > len(snapshots) {
		workers = len(snapshots)
	}

	results := make([]*models.CascadeRisk, len(snapshots))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.engine.Score(snapshots[i], atMs)
			}
		}()
	}
	for i := range snapshots {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, s := range snapshots {
		c.engine.Observe(s)
	}

	risks := make([]*models.CascadeRisk, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		c.metrics.RecordRiskScore(r.Symbol, float64(r.RiskScore))
		risks = append(risks, r)
	}
	return risks
}

// deliver persists, publishes, and caches one cycle's output. Each leg fails
// independently.
func (c *RiskCycle) deliver(ctx context.Context, risks []*models.CascadeRisk) {
	if len(risks) == 0 {
		return
	}
	if err := c.events.InsertRiskHistory(ctx, risks); err != nil {
		c.metrics.RecordError("risk_history")
		c.lgr.Error("risk history insert failed", logger.Error(err))
	}
	if err := c.publisher.PublishRiskBatch(ctx, risks); err != nil {
		c.metrics.RecordError("risk_publish")
		c.lgr.Error("risk publish failed", logger.Error(err))
	}
	if err := c.cache.PutBatch(ctx, risks); err != nil {
		c.metrics.RecordError("risk_cache")
		c.lgr.Warn("risk cache update failed", logger.Error(err))
	}
}
