package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/akademik-core/internal/service"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

// AssignmentHandler exposes student placement endpoints.
type AssignmentHandler struct {
	allocations *service.AllocationService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(allocations *service.AllocationService) *AssignmentHandler {
	return &AssignmentHandler{allocations: allocations}
}

// Assign godoc
// @Summary Place a student into a specific class group
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignStudentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.allocations.AssignStudentToGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// AutoAssign godoc
// @Summary Allocate a group and place the student in one call
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AutoAssignRequest true "Auto-assign payload"
// @Success 201 {object} response.Envelope
// @Router /assignments/auto [post]
func (h *AssignmentHandler) AutoAssign(c *gin.Context) {
	var req service.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.AutoAssign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
