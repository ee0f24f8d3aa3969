package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolpanel/admin-api/internal/service"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
	"github.com/schoolpanel/admin-api/pkg/response"
)

// SalaryHandler handles the salary payment ledger endpoints.
type SalaryHandler struct {
	service *service.SalaryService
}

// NewSalaryHandler constructs a salary handler.
func NewSalaryHandler(svc *service.SalaryService) *SalaryHandler {
	return &SalaryHandler{service: svc}
}

// Record godoc
// @Summary Record a salary payment for a teacher
// @Tags Salary
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.RecordSalaryRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/salary [post]
func (h *SalaryHandler) Record(c *gin.Context) {
	var req service.RecordSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.service.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Ledger godoc
// @Summary List a teacher's salary payments, newest first
// @Tags Salary
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/{id}/salary [get]
func (h *SalaryHandler) Ledger(c *gin.Context) {
	payments, err := h.service.Ledger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}
