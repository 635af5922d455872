package usecase

import (
	"context"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/validation"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// LiquidationCollector consumes the force-order stream, filters records
// through the validation gate, and feeds the cascade detector.
type LiquidationCollector struct {
	stream   domrepo.LiquidationStream
	gate     *validation.Gate
	detector *CascadeDetector
	metrics  domrepo.Metrics
	lgr      *logger.Logger
}

// NewLiquidationCollector creates a collector for one exchange stream.
func NewLiquidationCollector(stream domrepo.LiquidationStream, gate *validation.Gate, detector *CascadeDetector, metrics domrepo.Metrics, lgr *logger.Logger) *LiquidationCollector {
	return &LiquidationCollector{
		stream:   stream,
		gate:     gate,
		detector: detector,
		metrics:  metrics,
		lgr:      lgr,
	}
}

// IsConnected reports stream status for health checks.
func (c *LiquidationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and launches the consume loop.
func (c *LiquidationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	recCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, recCh, errCh)
	return nil
}

func (c *LiquidationCollector) consume(ctx context.Context, recCh <-chan *models.LiquidationRecord, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("liquidation_stream")
				c.lgr.Warn("liquidation stream error", logger.Error(err))
				if err := c.reconnect(ctx); err != nil {
					return
				}
				recCh, errCh = c.stream.Read(ctx)
			}
		case r := <-recCh:
			if r == nil {
				continue
			}
			if !c.gate.ValidateLiquidation(r) {
				continue
			}
			c.detector.Observe(ctx, r)
		}
	}
}

func (c *LiquidationCollector) reconnect(ctx context.Context) error {
	type reconnector interface {
		Reconnect(ctx context.Context) error
	}
	if rc, ok := c.stream.(reconnector); ok {
		return rc.Reconnect(ctx)
	}
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	return c.stream.Subscribe(ctx)
}

// Stop closes the stream.
func (c *LiquidationCollector) Stop() error { return c.stream.Close() }
