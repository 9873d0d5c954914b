package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/akademik-core/internal/models"
	"github.com/akademika-dev/akademik-core/internal/service"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

// ClassGroupHandler exposes class group endpoints.
type ClassGroupHandler struct {
	allocations *service.AllocationService
}

// NewClassGroupHandler constructs ClassGroupHandler.
func NewClassGroupHandler(allocations *service.AllocationService) *ClassGroupHandler {
	return &ClassGroupHandler{allocations: allocations}
}

// List godoc
// @Summary List class groups with live seat usage
// @Tags ClassGroups
// @Produce json
// @Param majorId query string false "Filter by major"
// @Param academicYear query string false "Filter by academic year"
// @Param semester query string false "Filter by semester"
// @Param shift query string false "Filter by shift"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-groups [get]
func (h *ClassGroupHandler) List(c *gin.Context) {
	var filter models.ClassGroupFilter
	filter.MajorID = c.Query("majorId")
	filter.AcademicYear = c.Query("academicYear")
	filter.Semester = models.Semester(strings.ToUpper(c.Query("semester")))
	filter.Shift = strings.ToUpper(c.Query("shift"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	groups, pagination, err := h.allocations.ListGroups(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// Create godoc
// @Summary Create a class group with an explicit name
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param payload body models.ClassGroup true "Class group payload"
// @Success 201 {object} response.Envelope
// @Router /class-groups [post]
func (h *ClassGroupHandler) Create(c *gin.Context) {
	var group models.ClassGroup
	if err := c.ShouldBindJSON(&group); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.allocations.CreateGroup(c.Request.Context(), &group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Allocate godoc
// @Summary Find or create a class group with free seats
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param payload body service.AllocateGroupRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Router /class-groups/allocate [post]
func (h *ClassGroupHandler) Allocate(c *gin.Context) {
	var req service.AllocateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.allocations.GetOrCreateAvailableGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}
