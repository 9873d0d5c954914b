package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

var quotaTestNow = time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

func TestQuotaServiceEvaluateUnlimitedWithoutRow(t *testing.T) {
	svc := newQuotaFixture(&quotaReaderStub{}, &admissionCounterStub{count: 1000})

	err := svc.Evaluate(context.Background(), "m-1", "2026/2027")
	assert.NoError(t, err)
}

func TestQuotaServiceEvaluateClosedWindow(t *testing.T) {
	quotas := &quotaReaderStub{quota: &models.MajorQuota{
		MajorID: "m-1", AcademicYear: "2026/2027", Limit: 100,
		OpensAt:  quotaTestNow.AddDate(0, 1, 0),
		ClosesAt: quotaTestNow.AddDate(0, 2, 0),
	}}
	svc := newQuotaFixture(quotas, &admissionCounterStub{})

	err := svc.Evaluate(context.Background(), "m-1", "2026/2027")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaClosed.Code, appErrors.FromError(err).Code)
}

func TestQuotaServiceEvaluateLimitReached(t *testing.T) {
	quotas := &quotaReaderStub{quota: &models.MajorQuota{
		MajorID: "m-1", AcademicYear: "2026/2027", Limit: 2,
		OpensAt:  quotaTestNow.AddDate(0, -1, 0),
		ClosesAt: quotaTestNow.AddDate(0, 1, 0),
	}}
	svc := newQuotaFixture(quotas, &admissionCounterStub{count: 2})

	err := svc.Evaluate(context.Background(), "m-1", "2026/2027")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErrors.FromError(err).Code)
}

func TestQuotaServiceEvaluateOpenAndUnderLimit(t *testing.T) {
	quotas := &quotaReaderStub{quota: &models.MajorQuota{
		MajorID: "m-1", AcademicYear: "2026/2027", Limit: 2,
		OpensAt:  quotaTestNow.AddDate(0, -1, 0),
		ClosesAt: quotaTestNow.AddDate(0, 1, 0),
	}}
	svc := newQuotaFixture(quotas, &admissionCounterStub{count: 1})

	assert.NoError(t, svc.Evaluate(context.Background(), "m-1", "2026/2027"))
}

func TestQuotaServiceStatusReportsRemaining(t *testing.T) {
	quotas := &quotaReaderStub{quota: &models.MajorQuota{
		MajorID: "m-1", AcademicYear: "2026/2027", Limit: 120,
		OpensAt:  quotaTestNow.AddDate(0, -1, 0),
		ClosesAt: quotaTestNow.AddDate(0, 1, 0),
	}}
	svc := newQuotaFixture(quotas, &admissionCounterStub{count: 45})

	status, err := svc.Status(context.Background(), "m-1", "2026/2027")
	require.NoError(t, err)
	assert.True(t, status.Limited)
	assert.True(t, status.WindowOpen)
	assert.Equal(t, 45, status.Used)
	assert.Equal(t, 75, status.Remaining)
}

func TestQuotaServiceStatusWithoutQuotaRow(t *testing.T) {
	svc := newQuotaFixture(&quotaReaderStub{}, &admissionCounterStub{count: 45})

	status, err := svc.Status(context.Background(), "m-1", "2026/2027")
	require.NoError(t, err)
	assert.False(t, status.Limited)
	assert.True(t, status.WindowOpen)
	assert.Equal(t, 45, status.Used)
}

// --- Fixtures ---

func newQuotaFixture(quotas *quotaReaderStub, admissions *admissionCounterStub) *QuotaService {
	return NewQuotaService(quotas, admissions, nil, zap.NewNop(), func() time.Time { return quotaTestNow })
}

type quotaReaderStub struct {
	quota *models.MajorQuota
}

func (s *quotaReaderStub) FindByMajorAndYear(ctx context.Context, majorID, academicYear string) (*models.MajorQuota, error) {
	if s.quota == nil {
		return nil, sql.ErrNoRows
	}
	return s.quota, nil
}

type admissionCounterStub struct {
	count int
}

func (s *admissionCounterStub) CountAdmittedByMajorAndYear(ctx context.Context, majorID, academicYear string) (int, error) {
	return s.count, nil
}
