package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/akademik-core/internal/service"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

// ScheduleTemplateHandler exposes weekly template endpoints.
type ScheduleTemplateHandler struct {
	templates *service.TemplateService
	generator *service.SessionGeneratorService
}

// NewScheduleTemplateHandler constructs ScheduleTemplateHandler.
func NewScheduleTemplateHandler(templates *service.TemplateService, generator *service.SessionGeneratorService) *ScheduleTemplateHandler {
	return &ScheduleTemplateHandler{templates: templates, generator: generator}
}

// List godoc
// @Summary List schedule templates
// @Tags ScheduleTemplates
// @Produce json
// @Param courseId query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /schedule-templates [get]
func (h *ScheduleTemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context(), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get a schedule template
// @Tags ScheduleTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /schedule-templates/{id} [get]
func (h *ScheduleTemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Create godoc
// @Summary Create a schedule template
// @Tags ScheduleTemplates
// @Accept json
// @Produce json
// @Param payload body service.TemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-templates [post]
func (h *ScheduleTemplateHandler) Create(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tmpl, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tmpl)
}

// Update godoc
// @Summary Update a schedule template
// @Tags ScheduleTemplates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.TemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-templates/{id} [put]
func (h *ScheduleTemplateHandler) Update(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tmpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Delete godoc
// @Summary Delete a schedule template
// @Tags ScheduleTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 204
// @Router /schedule-templates/{id} [delete]
func (h *ScheduleTemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckAvailability godoc
// @Summary Check whether a weekly room slot is free
// @Tags ScheduleTemplates
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-templates/availability [post]
func (h *ScheduleTemplateHandler) CheckAvailability(c *gin.Context) {
	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	availability, err := h.templates.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// Generate godoc
// @Summary Generate sessions from one template over a date range
// @Tags ScheduleTemplates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.GenerateSessionsRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-templates/{id}/generate [post]
func (h *ScheduleTemplateHandler) Generate(c *gin.Context) {
	var req service.GenerateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.generator.GenerateForTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
