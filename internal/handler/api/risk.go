package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Abdr007/prism-ai-sub001/internal/calibration"
	models "github.com/Abdr007/prism-ai-sub001/internal/domain/models"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/service/riskcache"
	"github.com/Abdr007/prism-ai-sub001/internal/usecase"
	xhttp "github.com/Abdr007/prism-ai-sub001/pkg/http"
	xlogger "github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// RiskHandler serves the risk API from the latest-risk cache and the event
// store; it never blocks on a scoring cycle.
type RiskHandler struct {
	logger    *xlogger.Logger
	cache     *riskcache.Store
	calib     *calibration.Store
	fitter    *calibration.Fitter
	anomalies *usecase.AnomalyLog
	events    domrepo.EventStore
	symbols   []string
}

func NewRiskHandler(
	logger *xlogger.Logger,
	cache *riskcache.Store,
	calib *calibration.Store,
	fitter *calibration.Fitter,
	anomalies *usecase.AnomalyLog,
	events domrepo.EventStore,
	symbols []string,
) *RiskHandler {
	return &RiskHandler{
		logger:    logger,
		cache:     cache,
		calib:     calib,
		fitter:    fitter,
		anomalies: anomalies,
		events:    events,
		symbols:   symbols,
	}
}

func (h *RiskHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/risk", h.AllRisk)
	g.GET("/risk/:symbol", h.SymbolRisk)
	g.GET("/calibration", h.Calibration)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/events", h.Events)
}

// AllRisk returns the latest result for every configured symbol. Symbols not
// yet scored this session are simply absent.
func (h *RiskHandler) AllRisk(c echo.Context) error {
	risks, err := h.cache.GetAll(c.Request().Context(), h.symbols)
	if err != nil {
		h.logger.Error("risk cache read failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, risks, int64(len(risks)))
}

func (h *RiskHandler) SymbolRisk(c echo.Context) error {
	symbol := c.Param("symbol")
	r, err := h.cache.Get(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, riskcache.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "no risk result for symbol")
		}
		h.logger.Error("risk cache read failed",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, r)
}

type calibrationResponse struct {
	Params     *models.CalibrationParams `json:"params"`
	LastReport *models.CalibrationReport `json:"last_report,omitempty"`
}

func (h *RiskHandler) Calibration(c echo.Context) error {
	return xhttp.SuccessResponse(c, &calibrationResponse{
		Params:     h.calib.Current(),
		LastReport: h.fitter.LastReport(),
	})
}

func (h *RiskHandler) Anomalies(c echo.Context) error {
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var rules []string
	if req.Rule != "" {
		rules = []string{req.Rule}
	}
	events := h.anomalies.Recent(req.Limit, rules)
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *RiskHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	events, err := h.events.GetCascadeEvents(c.Request().Context(), req.Symbol, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		h.logger.Error("cascade event query failed",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}
