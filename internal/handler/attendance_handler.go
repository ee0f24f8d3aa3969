package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schoolpanel/admin-api/internal/service"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
	"github.com/schoolpanel/admin-api/pkg/response"
)

// AttendanceHandler handles the teacher attendance ledger endpoints.
type AttendanceHandler struct {
	service   *service.AttendanceService
	dashboard *service.DashboardService
}

// NewAttendanceHandler constructs an attendance handler. The dashboard
// service may be nil; it is only used to invalidate the cached snapshot
// after writes.
func NewAttendanceHandler(svc *service.AttendanceService, dashboard *service.DashboardService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, dashboard: dashboard}
}

// Record godoc
// @Summary Record attendance for a teacher on one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// View godoc
// @Summary View the attendance calendar for a date range
// @Tags Attendance
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "Range start (YYYY-MM-DD), defaults to the ledger epoch"
// @Param to query string false "Range end (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/attendance [get]
func (h *AttendanceHandler) View(c *gin.Context) {
	from := h.service.Epoch()
	to := h.service.Today()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
			return
		}
		to = parsed
	}

	entries, err := h.service.View(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Ledger godoc
// @Summary Full persisted attendance ledger with gap backfill
// @Tags Attendance
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/attendance/ledger [get]
func (h *AttendanceHandler) Ledger(c *gin.Context) {
	rows, err := h.service.Ledger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Summary godoc
// @Summary Presence counts for a date range
// @Tags Attendance
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	from := h.service.Epoch()
	to := h.service.Today()
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			to = parsed
		}
	}
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SelfLedger godoc
// @Summary Authenticated teacher's own attendance ledger
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/self [get]
func (h *AttendanceHandler) SelfLedger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.service.SelfLedger(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// MarkSelf godoc
// @Summary Teacher self check-in for today
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/self [post]
func (h *AttendanceHandler) MarkSelf(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.MarkSelfPresent(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, record, nil)
}
