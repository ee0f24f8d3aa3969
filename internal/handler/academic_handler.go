package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolpanel/admin-api/internal/service"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
	"github.com/schoolpanel/admin-api/pkg/response"
)

// AcademicHandler handles classroom, section and subject endpoints.
type AcademicHandler struct {
	service  *service.AcademicService
	students *service.StudentService
}

// NewAcademicHandler constructs an academic handler.
func NewAcademicHandler(svc *service.AcademicService, students *service.StudentService) *AcademicHandler {
	return &AcademicHandler{service: svc, students: students}
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms [get]
func (h *AcademicHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.service.ListClassrooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, nil)
}

// CreateClassroom godoc
// @Summary Create classroom
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body service.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms [post]
func (h *AcademicHandler) CreateClassroom(c *gin.Context) {
	var req service.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.service.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// ListSections godoc
// @Summary List sections under a classroom
// @Tags Academics
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/sections [get]
func (h *AcademicHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// CreateSection godoc
// @Summary Create section under a classroom
// @Tags Academics
// @Accept json
// @Produce json
// @Param id path string true "Classroom ID"
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/sections [post]
func (h *AcademicHandler) CreateSection(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.service.CreateSection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// SectionCounts godoc
// @Summary Student headcount per section within a classroom
// @Tags Academics
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/section-counts [get]
func (h *AcademicHandler) SectionCounts(c *gin.Context) {
	counts, err := h.students.SectionCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *AcademicHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [post]
func (h *AcademicHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}
