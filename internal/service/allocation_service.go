package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

type classGroupStore interface {
	List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupSeats, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.ClassGroup, error)
	FindAvailable(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (*models.ClassGroup, error)
	NextSequence(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (int, error)
	Create(ctx context.Context, group *models.ClassGroup) error
}

type assignmentStore interface {
	CountByGroupAndPeriod(ctx context.Context, exec sqlx.ExtContext, classGroupID, academicYear string, semester models.Semester) (int, error)
	FindByStudentAndPeriod(ctx context.Context, exec sqlx.ExtContext, studentID, academicYear string, semester models.Semester) (*models.StudentPeriodAssignment, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudentPeriodAssignment) error
}

type quotaEvaluator interface {
	Evaluate(ctx context.Context, majorID, academicYear string) error
	InvalidateStatus(ctx context.Context, majorID string)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AllocateGroupRequest describes a free-seat group lookup or creation.
type AllocateGroupRequest struct {
	MajorID         string          `json:"major_id" validate:"required"`
	AcademicYear    string          `json:"academic_year" validate:"required"`
	Semester        models.Semester `json:"semester" validate:"required,oneof=ODD EVEN SHORT"`
	Shift           *string         `json:"shift,omitempty" validate:"omitempty,oneof=MORNING AFTERNOON EVENING"`
	DefaultCapacity int             `json:"default_capacity,omitempty" validate:"omitempty,gt=0"`
}

// AssignStudentRequest binds a student to a specific class group for a period.
type AssignStudentRequest struct {
	StudentID    string          `json:"student_id" validate:"required"`
	ClassGroupID string          `json:"class_group_id" validate:"required"`
	AcademicYear string          `json:"academic_year" validate:"required"`
	Semester     models.Semester `json:"semester" validate:"required,oneof=ODD EVEN SHORT"`
}

// AutoAssignRequest lets the enrollment workflow allocate and assign in one go.
type AutoAssignRequest struct {
	StudentID       string          `json:"student_id" validate:"required"`
	MajorID         string          `json:"major_id" validate:"required"`
	AcademicYear    string          `json:"academic_year" validate:"required"`
	Semester        models.Semester `json:"semester" validate:"required,oneof=ODD EVEN SHORT"`
	Shift           *string         `json:"shift,omitempty" validate:"omitempty,oneof=MORNING AFTERNOON EVENING"`
	DefaultCapacity int             `json:"default_capacity,omitempty" validate:"omitempty,gt=0"`
}

// AutoAssignResult carries the chosen group together with the assignment.
type AutoAssignResult struct {
	Group      *models.ClassGroup              `json:"group"`
	Assignment *models.StudentPeriodAssignment `json:"assignment"`
}

// AllocationService places students into capacity-limited class groups.
// Capacity is enforced by locking the group row and recounting live
// assignment rows inside one transaction; there is no counter column to
// drift out of sync.
type AllocationService struct {
	groups          classGroupStore
	assignments     assignmentStore
	quota           quotaEvaluator
	tx              txProvider
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	defaultCapacity int
}

// NewAllocationService wires allocator dependencies.
func NewAllocationService(groups classGroupStore, assignments assignmentStore, quota quotaEvaluator, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultCapacity int) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 40
	}
	return &AllocationService{
		groups:          groups,
		assignments:     assignments,
		quota:           quota,
		tx:              tx,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		defaultCapacity: defaultCapacity,
	}
}

// ListGroups returns class groups with live seat usage.
func (s *AllocationService) ListGroups(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupSeats, *models.Pagination, error) {
	groups, total, err := s.groups.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class groups")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return groups, pagination, nil
}

// CreateGroup lets an admin create a class group with an explicit name.
func (s *AllocationService) CreateGroup(ctx context.Context, group *models.ClassGroup) (*models.ClassGroup, error) {
	if group.MajorID == "" || group.AcademicYear == "" || group.Semester == "" || group.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "majorId, academicYear, semester and name are required")
	}
	if group.Capacity <= 0 {
		group.Capacity = s.defaultCapacity
	}
	if err := s.groups.Create(ctx, group); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class group name already exists for this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class group")
	}
	return group, nil
}

// GetOrCreateAvailableGroup returns a group of the tuple with free seats,
// creating one with the next sequential name when all are full. The quota
// window and limit are checked before any group is created or locked.
func (s *AllocationService) GetOrCreateAvailableGroup(ctx context.Context, req AllocateGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group allocation payload")
	}
	if err := s.quota.Evaluate(ctx, req.MajorID, req.AcademicYear); err != nil {
		s.recordAllocation(appErrors.FromError(err).Code)
		return nil, err
	}

	group, err := s.groups.FindAvailable(ctx, req.MajorID, req.AcademicYear, req.Semester, req.Shift)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find available class group")
	}

	capacity := req.DefaultCapacity
	if capacity <= 0 {
		capacity = s.defaultCapacity
	}

	// Two attempts cover a lost naming race: the winner's group either has
	// room, or we take the next suffix.
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.groups.NextSequence(ctx, req.MajorID, req.AcademicYear, req.Semester, req.Shift)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute class group name")
		}
		created := &models.ClassGroup{
			MajorID:      req.MajorID,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
			Shift:        req.Shift,
			Name:         fmt.Sprintf("%02d", seq),
			Capacity:     capacity,
		}
		if err := s.groups.Create(ctx, created); err != nil {
			if isUniqueViolation(err) {
				if existing, ferr := s.groups.FindAvailable(ctx, req.MajorID, req.AcademicYear, req.Semester, req.Shift); ferr == nil {
					return existing, nil
				}
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class group")
		}
		s.logger.Info("class group created",
			zap.String("class_group_id", created.ID),
			zap.String("major_id", created.MajorID),
			zap.String("academic_year", created.AcademicYear),
			zap.String("name", created.Name),
			zap.Int("capacity", created.Capacity))
		return created, nil
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "could not allocate a class group, please retry")
}

// AssignStudentToGroup writes the student's assignment for the period inside
// one transaction: lock the group row, recount live assignments under the
// lock, then upsert. Re-assigning the same group is a no-op; a different
// group in the same period replaces the previous assignment. Admin overrides
// use this same path; the quota window is only consulted by
// GetOrCreateAvailableGroup.
func (s *AllocationService) AssignStudentToGroup(ctx context.Context, req AssignStudentRequest) (*models.StudentPeriodAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	group, err := s.groups.FindByID(ctx, req.ClassGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if group.AcademicYear != req.AcademicYear || group.Semester != req.Semester {
		s.recordAllocation(appErrors.ErrPeriodMismatch.Code)
		return nil, appErrors.Clone(appErrors.ErrPeriodMismatch, "")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, lockErr := s.groups.FindByIDForUpdate(ctx, tx, req.ClassGroupID)
	if lockErr != nil {
		err = appErrors.Wrap(lockErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock class group")
		return nil, err
	}

	existing, findErr := s.assignments.FindByStudentAndPeriod(ctx, tx, req.StudentID, req.AcademicYear, req.Semester)
	if findErr != nil && !errors.Is(findErr, sql.ErrNoRows) {
		err = appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing assignment")
		return nil, err
	}

	if existing != nil && existing.ClassGroupID == locked.ID {
		// Idempotent re-assignment: same group, same period.
		if err = tx.Commit(); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
			return nil, err
		}
		s.recordAllocation("noop")
		return existing, nil
	}

	count, countErr := s.assignments.CountByGroupAndPeriod(ctx, tx, locked.ID, req.AcademicYear, req.Semester)
	if countErr != nil {
		err = appErrors.Wrap(countErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count group assignments")
		return nil, err
	}
	if count >= locked.Capacity {
		err = appErrors.Clone(appErrors.ErrGroupFull, "")
		s.recordAllocation(appErrors.ErrGroupFull.Code)
		return nil, err
	}

	assignment := existing
	if assignment == nil {
		assignment = &models.StudentPeriodAssignment{
			StudentID:    req.StudentID,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
		}
	}
	assignment.ClassGroupID = locked.ID

	if upsertErr := s.assignments.Upsert(ctx, tx, assignment); upsertErr != nil {
		err = appErrors.Wrap(upsertErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write assignment")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
		return nil, err
	}

	outcome := "assigned"
	if existing != nil {
		outcome = "reassigned"
	}
	s.recordAllocation(outcome)
	s.quota.InvalidateStatus(ctx, group.MajorID)
	s.logger.Info("student assigned",
		zap.String("student_id", req.StudentID),
		zap.String("class_group_id", locked.ID),
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", string(req.Semester)),
		zap.String("outcome", outcome))
	return assignment, nil
}

// AutoAssign composes group allocation and assignment for the enrollment
// workflow. Losing the race for a last seat is retried once at this calling
// layer: the second pass either finds the freshly created group or surfaces
// the quota error.
func (s *AllocationService) AutoAssign(ctx context.Context, req AutoAssignRequest) (*AutoAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-assign payload")
	}

	allocReq := AllocateGroupRequest{
		MajorID:         req.MajorID,
		AcademicYear:    req.AcademicYear,
		Semester:        req.Semester,
		Shift:           req.Shift,
		DefaultCapacity: req.DefaultCapacity,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		group, err := s.GetOrCreateAvailableGroup(ctx, allocReq)
		if err != nil {
			return nil, err
		}
		assignment, err := s.AssignStudentToGroup(ctx, AssignStudentRequest{
			StudentID:    req.StudentID,
			ClassGroupID: group.ID,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
		})
		if err == nil {
			return &AutoAssignResult{Group: group, Assignment: assignment}, nil
		}
		if !errors.Is(err, appErrors.ErrGroupFull) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *AllocationService) recordAllocation(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAllocation(outcome)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
