package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akademika-dev/akademik-core/internal/models"
	"github.com/akademika-dev/akademik-core/internal/service"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
	"github.com/akademika-dev/akademik-core/pkg/jobs"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

// ClassSessionHandler exposes dated session endpoints, including template
// generation over a date range.
type ClassSessionHandler struct {
	sessions  *service.ClassSessionService
	generator *service.SessionGeneratorService
	queue     *jobs.Queue
}

// NewClassSessionHandler constructs ClassSessionHandler. queue may be nil when
// asynchronous generation is disabled.
func NewClassSessionHandler(sessions *service.ClassSessionService, generator *service.SessionGeneratorService, queue *jobs.Queue) *ClassSessionHandler {
	return &ClassSessionHandler{sessions: sessions, generator: generator, queue: queue}
}

// List godoc
// @Summary List class sessions
// @Tags ClassSessions
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-sessions [get]
func (h *ClassSessionHandler) List(c *gin.Context) {
	var filter models.ClassSessionFilter
	filter.CourseID = c.Query("courseId")
	if raw := c.Query("from"); raw != "" {
		if from, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Create godoc
// @Summary Create an ad-hoc class session
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /class-sessions [post]
func (h *ClassSessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Delete godoc
// @Summary Delete a class session without recorded attendance
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /class-sessions/{id} [delete]
func (h *ClassSessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Generate sessions from weekly templates over a date range
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param async query bool false "Queue the run instead of waiting"
// @Param payload body service.GenerateSessionsRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /class-sessions/generate [post]
func (h *ClassSessionHandler) Generate(c *gin.Context) {
	var req service.GenerateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if c.Query("async") == "true" && h.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: "session_generation", Payload: req}
		if err := h.queue.Enqueue(job); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to queue generation"))
			return
		}
		response.Accepted(c, gin.H{"job_id": job.ID})
		return
	}

	summary, err := h.generator.GenerateForRange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
