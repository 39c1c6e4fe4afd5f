package api

import (
	"context"
	"net/http"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/ratelimit"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RegimeState is the detector surface exposed over the ops API.
type RegimeState interface {
	History() []models.DetectionRecord
	SuccessRate() (float64, int)
	LatestReport() *models.MarketAnalysisReport
	RecordOutcome(ctx context.Context, id string, success bool) bool
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatusHandler serves health, strategy and regime state routes.
type StatusHandler struct {
	logger     *xlogger.Logger
	regime     RegimeState
	active     string
	strategies []string
	checks     map[string]HealthChecker
	limiter    *ratelimit.Limiter
}

func NewStatusHandler(logger *xlogger.Logger, regime RegimeState, active string, strategies []string) *StatusHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &StatusHandler{
		logger:     logger,
		regime:     regime,
		active:     active,
		strategies: strategies,
		checks:     map[string]HealthChecker{},
	}
}

// SetLimiter throttles write routes per client IP.
func (h *StatusHandler) SetLimiter(l *ratelimit.Limiter) { h.limiter = l }

// AddCheck registers a dependency checked by /readyz.
func (h *StatusHandler) AddCheck(name string, c HealthChecker) {
	if c != nil {
		h.checks[name] = c
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)

	g := e.Group("/v1")
	g.GET("/strategies", h.Strategies)
	g.GET("/regime/report", h.Report)
	g.GET("/regime/history", h.History)
	g.POST("/regime/history/:id/outcome", h.Outcome, h.throttle)
}

func (h *StatusHandler) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

func (h *StatusHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *StatusHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	ready := true
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("readiness check failed", xlogger.String("dependency", name), xlogger.Error(err))
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	if !ready {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *StatusHandler) Strategies(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"active":    h.active,
		"available": h.strategies,
	})
}

func (h *StatusHandler) Report(c echo.Context) error {
	report := h.regime.LatestReport()
	if report == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no market report in the last %s", models.ReportValidity))
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=60")
	return xhttp.SuccessResponse(c, report)
}

type historyResponse struct {
	Records     []models.DetectionRecord `json:"records"`
	SuccessRate float64                  `json:"success_rate"`
	Resolved    int                      `json:"resolved"`
}

func (h *StatusHandler) History(c echo.Context) error {
	rate, resolved := h.regime.SuccessRate()
	return xhttp.SuccessResponse(c, historyResponse{
		Records:     h.regime.History(),
		SuccessRate: rate,
		Resolved:    resolved,
	})
}

// Outcome marks a detection as a success or failure: ?result=success|failure.
func (h *StatusHandler) Outcome(c echo.Context) error {
	id := c.Param("id")
	var success bool
	switch c.QueryParam("result") {
	case string(models.OutcomeSuccess):
		success = true
	case string(models.OutcomeFailure):
		success = false
	default:
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("result", "result must be success or failure"))
	}

	if !h.regime.RecordOutcome(c.Request().Context(), id, success) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("detection %s not found", id))
	}
	h.logger.Info("detection outcome recorded", xlogger.String("id", id), xlogger.Bool("success", success))
	return xhttp.SuccessResponse(c, map[string]interface{}{"id": id, "success": success})
}
