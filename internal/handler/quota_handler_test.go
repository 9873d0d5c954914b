package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	"github.com/akademika-dev/akademik-core/internal/service"
	"github.com/akademika-dev/akademik-core/pkg/response"
)

type quotaReaderFake struct {
	quota *models.MajorQuota
}

func (f *quotaReaderFake) FindByMajorAndYear(ctx context.Context, majorID, academicYear string) (*models.MajorQuota, error) {
	if f.quota == nil {
		return nil, sql.ErrNoRows
	}
	return f.quota, nil
}

type admissionCounterFake struct {
	count int
}

func (f *admissionCounterFake) CountAdmittedByMajorAndYear(ctx context.Context, majorID, academicYear string) (int, error) {
	return f.count, nil
}

func TestQuotaHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	quotas := &quotaReaderFake{quota: &models.MajorQuota{
		MajorID: "m-1", AcademicYear: "2026/2027", Limit: 120,
		OpensAt: now.AddDate(0, -1, 0), ClosesAt: now.AddDate(0, 1, 0),
	}}
	svc := service.NewQuotaService(quotas, &admissionCounterFake{count: 45}, nil, zap.NewNop(), func() time.Time { return now })
	handler := NewQuotaHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/majors/m-1/quota?academicYear=2026%2F2027", nil)
	c.Params = gin.Params{{Key: "majorId", Value: "m-1"}}

	handler.Status(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var status models.QuotaStatus
	require.NoError(t, json.Unmarshal(payload, &status))
	assert.Equal(t, 45, status.Used)
	assert.Equal(t, 75, status.Remaining)
	assert.True(t, status.WindowOpen)
}

func TestQuotaHandlerStatusRequiresYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewQuotaService(&quotaReaderFake{}, &admissionCounterFake{}, nil, zap.NewNop(), nil)
	handler := NewQuotaHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/majors/m-1/quota", nil)
	c.Params = gin.Params{{Key: "majorId", Value: "m-1"}}

	handler.Status(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandlerRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAssignmentHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Assign(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
