package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service/serviceutils"
	"github.com/ZhiruiFeng/zflow-gateway/internal/timeline"
)

type TimelineHandler struct {
	svc service.TimelineService
}

func NewTimelineHandler(svc service.TimelineService) *TimelineHandler {
	return &TimelineHandler{svc: svc}
}

// DayHandler handles GET /api/timeline?date=YYYY-MM-DD&tz=<IANA zone>.
// date defaults to today; tz defaults to UTC, since the server's own zone is
// meaningless to a remote user.
func (h *TimelineHandler) DayHandler(c echo.Context) error {
	ctx := c.Request().Context()

	loc := time.UTC
	if tz := c.QueryParam("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid tz parameter", err)
		}
		loc = parsed
	}

	date := time.Now().In(loc)
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid date parameter, want YYYY-MM-DD", err)
		}
		date = parsed
	}

	res, err := h.svc.Day(ctx, date, loc)
	if err != nil {
		if errors.Is(err, timeline.ErrStale) {
			return serviceutils.ResponseError(c, http.StatusConflict, "Superseded by a newer request", err)
		}
		logger.ErrorLog(ctx, "timeline day %s: %v", date.Format("2006-01-02"), err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to aggregate timeline", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", res)
}
