package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
)

// HealthHandler reports liveness of the service's backing pieces.
type HealthHandler struct {
	events          domrepo.EventStore
	streamConnected func() bool
}

func NewHealthHandler(events domrepo.EventStore, streamConnected func() bool) *HealthHandler {
	return &HealthHandler{events: events, streamConnected: streamConnected}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

type healthResponse struct {
	Status          string `json:"status"`
	Storage         string `json:"storage"`
	StreamConnected bool   `json:"stream_connected"`
}

// Health returns 200 when storage answers, 503 otherwise. A disconnected
// liquidation stream degrades the payload but not the status: scoring cycles
// keep running without it.
func (h *HealthHandler) Health(c echo.Context) error {
	resp := &healthResponse{Status: "ok", Storage: "ok"}
	if h.streamConnected != nil {
		resp.StreamConnected = h.streamConnected()
	}

	if err := h.events.Health(c.Request().Context()); err != nil {
		resp.Status = "degraded"
		resp.Storage = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Handlers composes every route group behind one registration point.
type Handlers struct {
	Risk   *RiskHandler
	Health *HealthHandler
}

func NewHandlers(risk *RiskHandler, health *HealthHandler) *Handlers {
	return &Handlers{Risk: risk, Health: health}
}

func (h *Handlers) RegisterRoutes(e *echo.Echo) {
	h.Risk.RegisterRoutes(e)
	h.Health.RegisterRoutes(e)
}
