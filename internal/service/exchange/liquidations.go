package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	drepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// LiquidationClient implements a LiquidationStream backed by the Binance
// futures force-order WebSocket feed.
type LiquidationClient struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	lgr            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewLiquidationStream creates a Binance force-order stream client.
func NewLiquidationStream(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, lgr *logger.Logger) drepo.LiquidationStream {
	return &LiquidationClient{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		lgr:            lgr,
	}
}

// Connect establishes the WebSocket connection on the combined stream for
// every configured symbol's force-order channel.
func (c *LiquidationClient) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		streams = append(streams, strings.ToLower(binanceInstrument(s))+"@forceOrder")
	}
	u := fmt.Sprintf("%s/stream?streams=%s", c.websocketURL, strings.Join(streams, "/"))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("liquidation stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.lgr.Info("liquidation stream connected", logger.Int("streams", len(streams)))
	return nil
}

// Subscribe is a no-op: combined-stream URLs subscribe at connect time.
func (c *LiquidationClient) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("liquidation stream not connected")
	}
	return nil
}

type forceOrder struct {
	Symbol       string `json:"s"`
	Side         string `json:"S"` // side of the liquidated order
	Quantity     string `json:"q"`
	AveragePrice string `json:"ap"`
	TradeTime    int64  `json:"T"`
}

type forceOrderEvent struct {
	EventType string     `json:"e"`
	Order     forceOrder `json:"o"`
}

type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   forceOrderEvent `json:"data"`
}

// Read streams liquidation records and errors. The read loop exits on the
// first read error; the caller owns reconnect policy. Each call starts one
// read session over the current connection; the session's ping loop stops
// with its read loop, so a later reconnect never has two ping writers on
// one connection.
func (c *LiquidationClient) Read(ctx context.Context) (<-chan *models.LiquidationRecord, <-chan error) {
	out := make(chan *models.LiquidationRecord, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})
	conn := c.conn

	go c.pingLoop(ctx, conn, done)

	go func() {
		defer close(out)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if conn == nil {
					errs <- fmt.Errorf("liquidation stream conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("liquidation stream read: %w", err)
					return
				}
				var frame combinedFrame
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-event frames
					continue
				}
				if frame.Data.EventType != "forceOrder" {
					continue
				}
				rec := c.toRecord(&frame.Data.Order)
				if rec == nil {
					continue
				}
				select {
				case out <- rec:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return out, errs
}

// pingLoop keeps one read session's connection alive. done is closed when
// that session's read loop exits.
func (c *LiquidationClient) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (c *LiquidationClient) toRecord(o *forceOrder) *models.LiquidationRecord {
	price := parseFloat(o.AveragePrice)
	qty := parseFloat(o.Quantity)
	side := models.SideSell
	if strings.EqualFold(o.Side, "BUY") {
		side = models.SideBuy
	}
	return &models.LiquidationRecord{
		Exchange:  binanceName,
		Symbol:    strings.TrimSuffix(o.Symbol, "USDT"),
		Side:      side,
		Price:     price,
		Quantity:  qty,
		USDValue:  price * qty,
		Timestamp: o.TradeTime,
	}
}

// Reconnect closes and reconnects after the configured delay.
func (c *LiquidationClient) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *LiquidationClient) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *LiquidationClient) IsConnected() bool { return c.connected }
