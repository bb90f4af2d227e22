package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/guttosm/neowatch/internal/domain/dto"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/ingestion"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/middleware"
	"github.com/guttosm/neowatch/internal/service"
)

// defaultWindowDays is the size of the historical window used when the
// caller leaves one or both range ends out.
const defaultWindowDays = 7

type dayQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

type historicalQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// Handler provides the NEO feed endpoints.
//
// Responsibilities:
//   - Validate query parameters and apply date defaults
//   - Call the service with the request context
//   - Shape results through the response DTOs
type Handler struct {
	svc         service.NeoService
	clock       clockwork.Clock
	maxSpanDays int
}

// NewHandler constructs a Handler. clock decides what "today" is; nil uses
// the wall clock. Historical ranges longer than maxSpanDays are rejected;
// a non-positive maxSpanDays accepts any range.
func NewHandler(svc service.NeoService, clock clockwork.Clock, maxSpanDays int) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{svc: svc, clock: clock, maxSpanDays: maxSpanDays}
}

// GetNeos godoc
// @Summary      Near-Earth objects for one day
// @Description  Lists every object with a close approach on the given UTC day
// @Tags         neos
// @Produce      json
// @Param        date  query     string  false  "Day in YYYY-MM-DD, defaults to today (UTC)" example(2024-01-01)
// @Success      200   {object}  dto.DayResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /neos [get]
func (h *Handler) GetNeos(c *gin.Context) {
	var q dayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "Invalid query parameters", validationError(err))
		return
	}

	day := models.TruncateDay(h.clock.Now())
	if q.Date != "" {
		day, _ = models.ParseDate(q.Date)
	}

	objs, err := h.svc.GetDay(c.Request.Context(), day)
	if err != nil {
		logger.L().Error().Err(err).Str("date", day.Format(models.DateLayout)).Msg("day fetch failed")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to fetch asteroid data", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewDayResponse(day.Format(models.DateLayout), objs))
}

// GetHistorical godoc
// @Summary      Daily summaries over a date range
// @Description  One summary per calendar day, ascending. Missing ends default to a 7-day window; ranges longer than the configured maximum are rejected.
// @Tags         neos
// @Produce      json
// @Param        start_date  query     string  false  "First day in YYYY-MM-DD" example(2024-01-01)
// @Param        end_date    query     string  false  "Last day in YYYY-MM-DD" example(2024-01-07)
// @Success      200         {object}  dto.HistoricalResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /neos/historical [get]
func (h *Handler) GetHistorical(c *gin.Context) {
	var q historicalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "Invalid query parameters", validationError(err))
		return
	}

	r, err := h.resolveRange(q)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	result, err := h.svc.GetHistorical(c.Request.Context(), r)
	if err != nil {
		logger.L().Error().Err(err).Str("range", r.String()).Msg("historical fetch failed")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Failed to fetch historical data", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewHistoricalResponse(r, result))
}

// resolveRange fills in missing ends: none given is the trailing window
// ending today, a lone start or end is extended to a full window. The
// resulting range may not exceed maxSpanDays.
func (h *Handler) resolveRange(q historicalQuery) (models.DateRange, error) {
	r, err := h.fillRange(q)
	if err != nil {
		return models.DateRange{}, err
	}
	if h.maxSpanDays > 0 && r.Days() > h.maxSpanDays {
		return models.DateRange{}, fmt.Errorf("range %s spans %d days, at most %d allowed", r, r.Days(), h.maxSpanDays)
	}
	return r, nil
}

func (h *Handler) fillRange(q historicalQuery) (models.DateRange, error) {
	start, _ := models.ParseDate(q.StartDate)
	end, _ := models.ParseDate(q.EndDate)

	switch {
	case q.StartDate == "" && q.EndDate == "":
		return ingestion.TrailingWindow(defaultWindowDays, h.clock.Now()), nil
	case q.EndDate == "":
		end = start.AddDate(0, 0, defaultWindowDays-1)
	case q.StartDate == "":
		start = end.AddDate(0, 0, -(defaultWindowDays - 1))
	}
	return models.NewDateRange(start, end)
}

// validationError rewrites binding failures into one readable line.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date in YYYY-MM-DD format, got %q", queryName(fe.Field()), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", queryName(fe.Field()), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func queryName(field string) string {
	switch field {
	case "StartDate":
		return "start_date"
	case "EndDate":
		return "end_date"
	default:
		return strings.ToLower(field)
	}
}
