package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

type handlers struct {
	backend api.Client
}

func optionalDate(c *gin.Context, param string) (models.LocalDate, error) {
	raw := c.Query(param)
	if raw == "" {
		return models.LocalDate{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.LocalDate{}, apperrors.Validation(param, "expected YYYY-MM-DD, got %q", raw)
	}
	return d, nil
}

func requiredDate(c *gin.Context, param string) (models.LocalDate, error) {
	d, err := optionalDate(c, param)
	if err != nil {
		return d, err
	}
	if d.IsZero() {
		return d, apperrors.Validation(param, "is required")
	}
	return d, nil
}

func limitParam(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.Validation("limit", "must be a non-negative integer")
	}
	return n, nil
}

func bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		writeError(c, apperrors.Validation("body", "%v", err))
		return false
	}
	return true
}

func respond[T any](c *gin.Context, status int, v T, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, v)
}

func (h *handlers) todayHabits(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		writeError(c, err)
		return
	}
	day, err := h.backend.TodayHabits(c.Request.Context(), c.Query("userId"), date)
	respond(c, http.StatusOK, day, err)
}

func (h *handlers) habitRange(c *gin.Context) {
	from, err := requiredDate(c, "startDate")
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := requiredDate(c, "endDate")
	if err != nil {
		writeError(c, err)
		return
	}
	days, err := h.backend.HabitRange(c.Request.Context(), c.Query("userId"), from, to)
	respond(c, http.StatusOK, days, err)
}

func (h *handlers) toggleHabit(c *gin.Context) {
	var req api.ToggleHabitRequest
	if !bind(c, &req) {
		return
	}
	day, err := h.backend.ToggleHabit(c.Request.Context(), req)
	respond(c, http.StatusOK, day, err)
}

func (h *handlers) injectionStatus(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		writeError(c, err)
		return
	}
	status, err := h.backend.InjectionStatus(c.Request.Context(), c.Query("userId"), date)
	respond(c, http.StatusOK, status, err)
}

func (h *handlers) injections(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := h.backend.Injections(c.Request.Context(), c.Query("userId"), limit)
	respond(c, http.StatusOK, history, err)
}

func (h *handlers) logInjection(c *gin.Context) {
	var req api.LogInjectionRequest
	if !bind(c, &req) {
		return
	}
	created, err := h.backend.LogInjection(c.Request.Context(), req)
	respond(c, http.StatusCreated, created, err)
}

func (h *handlers) latestWeighIn(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		writeError(c, err)
		return
	}
	latest, err := h.backend.LatestWeighIn(c.Request.Context(), c.Query("userId"), date)
	respond(c, http.StatusOK, latest, err)
}

func (h *handlers) weighIns(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := h.backend.WeighIns(c.Request.Context(), c.Query("userId"), limit)
	respond(c, http.StatusOK, history, err)
}

func (h *handlers) logWeighIn(c *gin.Context) {
	var req api.LogWeighInRequest
	if !bind(c, &req) {
		return
	}
	created, err := h.backend.LogWeighIn(c.Request.Context(), req)
	respond(c, http.StatusCreated, created, err)
}

func (h *handlers) month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		writeError(c, apperrors.Validation("year", "must be a number"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		writeError(c, apperrors.Validation("month", "must be a number"))
		return
	}
	agg, err := h.backend.Month(c.Request.Context(), c.Query("userId"), year, time.Month(month))
	respond(c, http.StatusOK, agg, err)
}
