package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/akademik-core/internal/service"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

// QuotaHandler exposes the advisory quota status endpoint.
type QuotaHandler struct {
	quotas *service.QuotaService
}

// NewQuotaHandler constructs QuotaHandler.
func NewQuotaHandler(quotas *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotas: quotas}
}

// Status godoc
// @Summary Report admission window and remaining seats for a major
// @Tags Quotas
// @Produce json
// @Param majorId path string true "Major ID"
// @Param academicYear query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /majors/{majorId}/quota [get]
func (h *QuotaHandler) Status(c *gin.Context) {
	status, err := h.quotas.Status(c.Request.Context(), c.Param("majorId"), c.Query("academicYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
