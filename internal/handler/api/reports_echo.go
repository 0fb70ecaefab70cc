package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"SentimentDesk/internal/domain/models"
	domrepo "SentimentDesk/internal/domain/repository"
	"SentimentDesk/internal/usecase"
	xhttp "SentimentDesk/pkg/http"
	xlogger "SentimentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportUseCase is the part of usecase.ReportService the HTTP layer needs.
type ReportUseCase interface {
	Parse(ctx context.Context, raw, weekID string) (*models.ParseResult, error)
	Score(rawText string, layers models.LayerInput, requireTickers *bool) models.ScoreOutcome
	GetReport(ctx context.Context, weekID string) (*models.Report, error)
	ListSnapshots(ctx context.Context, weekID string) ([]models.MarketDataSnapshot, error)
	JobStatus(ctx context.Context, id string) (*models.JobInfo, error)
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// ReportsEchoHandler serves the report API.
type ReportsEchoHandler struct {
	logger      *xlogger.Logger
	reports     ReportUseCase
	parseLimit  echo.MiddlewareFunc
	checks      map[string]HealthCheck
	healthLimit time.Duration
	maxRawBytes int
}

func NewReportsEchoHandler(
	logger *xlogger.Logger,
	reports ReportUseCase,
	parseLimit echo.MiddlewareFunc,
	checks map[string]HealthCheck,
) *ReportsEchoHandler {
	return &ReportsEchoHandler{
		logger:      logger,
		reports:     reports,
		parseLimit:  parseLimit,
		checks:      checks,
		healthLimit: 2 * time.Second,
	}
}

// WithMaxRawBytes rejects parse requests whose raw_text exceeds n bytes. Zero disables the check.
func (h *ReportsEchoHandler) WithMaxRawBytes(n int) *ReportsEchoHandler {
	h.maxRawBytes = n
	return h
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	if h.parseLimit != nil {
		g.POST("/parse", h.Parse, h.parseLimit)
	} else {
		g.POST("/parse", h.Parse)
	}
	g.POST("/score", h.Score)
	g.GET("/reports/:week_id", h.GetReport)
	g.GET("/reports/:week_id/snapshots", h.ListSnapshots)
	g.GET("/jobs/:id", h.JobStatus)
}

// Health answers 200 when every dependency responds and 503 otherwise.
func (h *ReportsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.healthLimit)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]interface{}{"status": status, "checks": deps}
	if status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, body)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *ReportsEchoHandler) Parse(c echo.Context) error {
	req := &models.ParseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.maxRawBytes > 0 && len(req.RawText) > h.maxRawBytes {
		return xhttp.AppErrorResponse(c, xhttp.PayloadTooLargeError("raw_text", "raw_text exceeds the input limit").
			WithParam("max_bytes", h.maxRawBytes).
			WithParam("bytes", len(req.RawText)))
	}

	res, err := h.reports.Parse(c.Request().Context(), req.RawText, req.WeekID)
	if errors.Is(err, usecase.ErrValidationFailed) {
		return xhttp.UnprocessableResponse(c, res.Validation)
	}
	if err != nil {
		h.logger.Error("parse usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.reports.Score(req.RawText, *req.Layers, req.RequireTickers))
}

func (h *ReportsEchoHandler) GetReport(c echo.Context) error {
	req := &models.WeekRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.reports.GetReport(c.Request().Context(), req.WeekID)
	if err != nil {
		return h.lookupError(c, "get report", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ReportsEchoHandler) ListSnapshots(c echo.Context) error {
	req := &models.WeekRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snaps, err := h.reports.ListSnapshots(c.Request().Context(), req.WeekID)
	if err != nil {
		return h.lookupError(c, "list snapshots", err)
	}
	if snaps == nil {
		snaps = []models.MarketDataSnapshot{}
	}
	return xhttp.SuccessResponse(c, snaps)
}

func (h *ReportsEchoHandler) JobStatus(c echo.Context) error {
	req := &models.JobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.reports.JobStatus(c.Request().Context(), req.ID)
	if err != nil {
		return h.lookupError(c, "job status", err)
	}
	return xhttp.SuccessResponse(c, info)
}

func (h *ReportsEchoHandler) lookupError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, domrepo.ErrReportNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("report not found"))
	case errors.Is(err, domrepo.ErrJobNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("job not found"))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError(op+" failed").WithError(err))
}
