package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolpanel/admin-api/internal/service"
	"github.com/schoolpanel/admin-api/pkg/response"
)

// ExportHandler serves ledger downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Attendance godoc
// @Summary Download a teacher's attendance ledger
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /teachers/{id}/attendance/export [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.service.AttendanceLedger(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

// Salary godoc
// @Summary Download a teacher's salary ledger
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /teachers/{id}/salary/export [get]
func (h *ExportHandler) Salary(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.service.SalaryLedger(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, file)
}

func serveExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(200, file.ContentType, file.Data)
}
