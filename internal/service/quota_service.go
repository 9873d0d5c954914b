package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

type quotaReader interface {
	FindByMajorAndYear(ctx context.Context, majorID, academicYear string) (*models.MajorQuota, error)
}

type admissionCounter interface {
	CountAdmittedByMajorAndYear(ctx context.Context, majorID, academicYear string) (int, error)
}

// QuotaService evaluates major admission windows and limits. The allocator
// consults Evaluate before creating or locking any group; Status is the
// advisory read used by presentation and may be served from cache.
type QuotaService struct {
	quotas     quotaReader
	admissions admissionCounter
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
}

// NewQuotaService constructs QuotaService. The clock defaults to UTC now.
func NewQuotaService(quotas quotaReader, admissions admissionCounter, cache *CacheService, logger *zap.Logger, now func() time.Time) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &QuotaService{quotas: quotas, admissions: admissions, cache: cache, logger: logger, now: now}
}

// Evaluate returns nil when admission is currently possible for the major and
// academic year. It always reads live state, never the cache.
func (s *QuotaService) Evaluate(ctx context.Context, majorID, academicYear string) error {
	quota, err := s.quotas.FindByMajorAndYear(ctx, majorID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load major quota")
	}
	if !quota.WindowOpen(s.now()) {
		return appErrors.Clone(appErrors.ErrQuotaClosed, "")
	}
	used, err := s.admissions.CountAdmittedByMajorAndYear(ctx, majorID, academicYear)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admissions")
	}
	if used >= quota.Limit {
		return appErrors.Clone(appErrors.ErrQuotaExceeded, "")
	}
	return nil
}

// Status reports the remaining seats and window state for a major and year.
func (s *QuotaService) Status(ctx context.Context, majorID, academicYear string) (*models.QuotaStatus, error) {
	if majorID == "" || academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "majorId and academicYear are required")
	}

	cacheKey := quotaStatusCacheKey(majorID, academicYear)
	if s.cache.Enabled() {
		var cached models.QuotaStatus
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	status := &models.QuotaStatus{
		MajorID:      majorID,
		AcademicYear: academicYear,
		WindowOpen:   true,
		CheckedAt:    s.now(),
	}

	quota, err := s.quotas.FindByMajorAndYear(ctx, majorID, academicYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load major quota")
	}

	used, err := s.admissions.CountAdmittedByMajorAndYear(ctx, majorID, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admissions")
	}
	status.Used = used

	if quota != nil {
		opens, closes := quota.OpensAt, quota.ClosesAt
		status.Limited = true
		status.Limit = quota.Limit
		status.OpensAt = &opens
		status.ClosesAt = &closes
		status.WindowOpen = quota.WindowOpen(status.CheckedAt)
		remaining := quota.Limit - used
		if remaining < 0 {
			remaining = 0
		}
		status.Remaining = remaining
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, status, 0); err != nil {
			s.logger.Warn("quota status cache write failed", zap.String("major_id", majorID), zap.Error(err))
		}
	}
	return status, nil
}

// InvalidateStatus drops the cached status after admissions change.
func (s *QuotaService) InvalidateStatus(ctx context.Context, majorID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("quota:status:%s:*", majorID)); err != nil {
		s.logger.Warn("quota status cache invalidate failed", zap.String("major_id", majorID), zap.Error(err))
	}
}

func quotaStatusCacheKey(majorID, academicYear string) string {
	return fmt.Sprintf("quota:status:%s:%s", majorID, academicYear)
}
