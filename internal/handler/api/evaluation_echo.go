package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FinAudit/internal/domain/models"
	"FinAudit/internal/service/ratelimit"
	"FinAudit/internal/usecase"
	xhttp "FinAudit/pkg/http"
	xlogger "FinAudit/pkg/logger"
)

// EvaluationEchoHandler serves the evaluation API under /api.
type EvaluationEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.EvaluationService
	limiter *ratelimit.Limiter
}

func NewEvaluationEchoHandler(logger *xlogger.Logger, svc *usecase.EvaluationService, limiter *ratelimit.Limiter) *EvaluationEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &EvaluationEchoHandler{logger: logger, svc: svc, limiter: limiter}
}

func (h *EvaluationEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	var limited []echo.MiddlewareFunc
	if h.limiter != nil {
		limited = append(limited, h.limiter.Middleware())
	}
	g.POST("/evaluations", h.Evaluate, limited...)
	g.POST("/anomalies/evaluate", h.EvaluateAnomalies, limited...)
	g.POST("/tax/evaluate", h.EvaluateTax, limited...)
	g.GET("/evaluations/period", h.EvaluatePeriod, limited...)

	g.GET("/evaluations/latest", h.Latest)
	g.GET("/tax/categories", h.Categories)
	g.GET("/compliance/checklist", h.Checklist)
}

func (h *EvaluationEchoHandler) Evaluate(c echo.Context) error {
	in := &models.EvaluationInput{}
	if verr := xhttp.ReadAndValidateRequest(c, in); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ev, err := h.svc.Evaluate(c.Request().Context(), in, models.SourceAPI)
	if err != nil {
		return h.fail(c, "evaluate", err)
	}
	return xhttp.SuccessResponse(c, ev)
}

func (h *EvaluationEchoHandler) EvaluateAnomalies(c echo.Context) error {
	in := &models.EvaluationInput{}
	if verr := xhttp.ReadAndValidateRequest(c, in); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rep, err := h.svc.AnomalyReport(in)
	if err != nil {
		return h.fail(c, "anomaly", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *EvaluationEchoHandler) EvaluateTax(c echo.Context) error {
	in := &models.EvaluationInput{}
	if verr := xhttp.ReadAndValidateRequest(c, in); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rep, err := h.svc.TaxReport(in)
	if err != nil {
		return h.fail(c, "tax", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *EvaluationEchoHandler) EvaluatePeriod(c echo.Context) error {
	req := &models.PeriodRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ev, err := h.svc.EvaluatePeriod(c.Request().Context(), req.Period, req.Months)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidInput) {
			h.logger.Error("period evaluation failed", xlogger.String("period", req.Period), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.UpstreamError("reporting service unavailable", err))
		}
		return h.fail(c, "period", err)
	}
	return xhttp.SuccessResponse(c, ev)
}

func (h *EvaluationEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.Latest(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "latest", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *EvaluationEchoHandler) Categories(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, h.svc.Categories())
}

func (h *EvaluationEchoHandler) Checklist(c echo.Context) error {
	items, summary, err := h.svc.Checklist()
	if err != nil {
		return h.fail(c, "checklist", err)
	}
	return xhttp.SuccessResponse(c, models.ChecklistResponse{Items: items, Summary: summary})
}

// fail maps invalid input to 400 and everything else to 500.
func (h *EvaluationEchoHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, models.ErrInvalidInput) {
		return xhttp.AppErrorResponse(c, xhttp.InvalidInputError(err))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError(http.StatusText(http.StatusInternalServerError)).WithError(err))
}
