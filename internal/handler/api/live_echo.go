package api

import (
	"net/http"

	xlogger "SentimentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

type liveFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// LiveEchoHandler upgrades /ws/reports to the report event feed.
type LiveEchoHandler struct {
	logger *xlogger.Logger
	feed   liveFeed
}

func NewLiveEchoHandler(logger *xlogger.Logger, feed liveFeed) *LiveEchoHandler {
	return &LiveEchoHandler{logger: logger, feed: feed}
}

func (h *LiveEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/reports", h.Reports)
}

func (h *LiveEchoHandler) Reports(c echo.Context) error {
	if err := h.feed.ServeWS(c.Response(), c.Request()); err != nil {
		// The upgrader has already written the failure response.
		h.logger.Warn("live feed upgrade failed", xlogger.Error(err))
	}
	return nil
}
