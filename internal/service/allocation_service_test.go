package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

func TestAllocationServiceGetOrCreateReturnsExisting(t *testing.T) {
	groups := &classGroupStoreStub{
		available: []models.ClassGroup{{ID: "g-1", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Name: "01", Capacity: 40}},
	}
	svc := newAllocationFixture(groups, &assignmentStoreStub{}, &quotaStub{}, nil)

	group, err := svc.GetOrCreateAvailableGroup(context.Background(), AllocateGroupRequest{
		MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-1", group.ID)
	assert.Empty(t, groups.created)
}

func TestAllocationServiceGetOrCreateCreatesNextGroup(t *testing.T) {
	groups := &classGroupStoreStub{nextSeq: 3}
	svc := newAllocationFixture(groups, &assignmentStoreStub{}, &quotaStub{}, nil)

	group, err := svc.GetOrCreateAvailableGroup(context.Background(), AllocateGroupRequest{
		MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	require.Len(t, groups.created, 1)
	assert.Equal(t, "03", group.Name)
	assert.Equal(t, 40, group.Capacity)
	assert.Equal(t, "m-1", group.MajorID)
}

func TestAllocationServiceGetOrCreateQuotaClosed(t *testing.T) {
	quota := &quotaStub{err: appErrors.Clone(appErrors.ErrQuotaClosed, "")}
	groups := &classGroupStoreStub{nextSeq: 1}
	svc := newAllocationFixture(groups, &assignmentStoreStub{}, quota, nil)

	_, err := svc.GetOrCreateAvailableGroup(context.Background(), AllocateGroupRequest{
		MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaClosed.Code, appErrors.FromError(err).Code)
	assert.Zero(t, groups.availCalls, "no group lookup once the window is closed")
}

func TestAllocationServiceGetOrCreateRecoversFromNameRace(t *testing.T) {
	groups := &classGroupStoreStub{
		nextSeq:    2,
		createErrs: []error{&pq.Error{Code: "23505"}},
		raceWinner: &models.ClassGroup{ID: "g-raced", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Name: "02", Capacity: 40},
	}
	svc := newAllocationFixture(groups, &assignmentStoreStub{}, &quotaStub{}, nil)

	group, err := svc.GetOrCreateAvailableGroup(context.Background(), AllocateGroupRequest{
		MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-raced", group.ID)
}

func TestAllocationServiceAssignSuccess(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	groups := &classGroupStoreStub{byID: map[string]models.ClassGroup{
		"g-1": {ID: "g-1", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 40},
	}}
	assignments := &assignmentStoreStub{}
	quota := &quotaStub{}
	svc := newAllocationFixture(groups, assignments, quota, txProvider)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignment, err := svc.AssignStudentToGroup(context.Background(), AssignStudentRequest{
		StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-1", assignment.ClassGroupID)
	require.Len(t, assignments.upserted, 1)
	assert.Contains(t, quota.invalidated, "m-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceAssignPeriodMismatch(t *testing.T) {
	groups := &classGroupStoreStub{byID: map[string]models.ClassGroup{
		"g-1": {ID: "g-1", MajorID: "m-1", AcademicYear: "2025/2026", Semester: models.SemesterOdd, Capacity: 40},
	}}
	svc := newAllocationFixture(groups, &assignmentStoreStub{}, &quotaStub{}, nil)

	_, err := svc.AssignStudentToGroup(context.Background(), AssignStudentRequest{
		StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPeriodMismatch.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceAssignGroupFull(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	groups := &classGroupStoreStub{byID: map[string]models.ClassGroup{
		"g-1": {ID: "g-1", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 2},
	}}
	assignments := &assignmentStoreStub{counts: map[string]int{"g-1": 2}}
	svc := newAllocationFixture(groups, assignments, &quotaStub{}, txProvider)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.AssignStudentToGroup(context.Background(), AssignStudentRequest{
		StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGroupFull.Code, appErrors.FromError(err).Code)
	assert.Empty(t, assignments.upserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceAssignSameGroupIsNoop(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	groups := &classGroupStoreStub{byID: map[string]models.ClassGroup{
		"g-1": {ID: "g-1", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 40},
	}}
	assignments := &assignmentStoreStub{existing: map[string]models.StudentPeriodAssignment{
		"s-1": {ID: "a-1", StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd},
	}}
	svc := newAllocationFixture(groups, assignments, &quotaStub{}, txProvider)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignment, err := svc.AssignStudentToGroup(context.Background(), AssignStudentRequest{
		StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "a-1", assignment.ID)
	assert.Empty(t, assignments.upserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceAssignReplacesPreviousGroup(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	groups := &classGroupStoreStub{byID: map[string]models.ClassGroup{
		"g-2": {ID: "g-2", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 40},
	}}
	assignments := &assignmentStoreStub{existing: map[string]models.StudentPeriodAssignment{
		"s-1": {ID: "a-1", StudentID: "s-1", ClassGroupID: "g-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd},
	}}
	svc := newAllocationFixture(groups, assignments, &quotaStub{}, txProvider)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignment, err := svc.AssignStudentToGroup(context.Background(), AssignStudentRequest{
		StudentID: "s-1", ClassGroupID: "g-2", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-2", assignment.ClassGroupID)
	assert.Equal(t, "a-1", assignment.ID, "existing row is moved, not duplicated")
	require.Len(t, assignments.upserted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceAutoAssignRetriesAfterLostSeat(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	groups := &classGroupStoreStub{
		byID: map[string]models.ClassGroup{
			"g-a": {ID: "g-a", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 2},
			"g-b": {ID: "g-b", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 2},
		},
		available: []models.ClassGroup{
			{ID: "g-a", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 2},
			{ID: "g-b", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd, Capacity: 2},
		},
	}
	// g-a filled up between allocation and the lock.
	assignments := &assignmentStoreStub{counts: map[string]int{"g-a": 2}}
	svc := newAllocationFixture(groups, assignments, &quotaStub{}, txProvider)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.AutoAssign(context.Background(), AutoAssignRequest{
		StudentID: "s-1", MajorID: "m-1", AcademicYear: "2026/2027", Semester: models.SemesterOdd,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-b", result.Group.ID)
	assert.Equal(t, "g-b", result.Assignment.ClassGroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Fixtures ---

func newAllocationFixture(groups *classGroupStoreStub, assignments *assignmentStoreStub, quota *quotaStub, tx txProvider) *AllocationService {
	if tx == nil {
		tx = noopTxProvider{}
	}
	return NewAllocationService(groups, assignments, quota, tx, nil, validator.New(), zap.NewNop(), 40)
}

type classGroupStoreStub struct {
	byID       map[string]models.ClassGroup
	available  []models.ClassGroup
	availCalls int
	nextSeq    int
	created    []*models.ClassGroup
	createErrs []error
	raceWinner *models.ClassGroup
}

func (s *classGroupStoreStub) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupSeats, int, error) {
	return nil, 0, nil
}

func (s *classGroupStoreStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if g, ok := s.byID[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classGroupStoreStub) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.ClassGroup, error) {
	return s.FindByID(ctx, id)
}

func (s *classGroupStoreStub) FindAvailable(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (*models.ClassGroup, error) {
	defer func() { s.availCalls++ }()
	if s.availCalls < len(s.available) {
		g := s.available[s.availCalls]
		return &g, nil
	}
	if s.raceWinner != nil && s.availCalls > 0 {
		winner := *s.raceWinner
		return &winner, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classGroupStoreStub) NextSequence(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (int, error) {
	return s.nextSeq, nil
}

func (s *classGroupStoreStub) Create(ctx context.Context, group *models.ClassGroup) error {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		return err
	}
	if group.ID == "" {
		group.ID = "g-new"
	}
	s.created = append(s.created, group)
	if s.byID == nil {
		s.byID = make(map[string]models.ClassGroup)
	}
	s.byID[group.ID] = *group
	return nil
}

type assignmentStoreStub struct {
	counts   map[string]int
	existing map[string]models.StudentPeriodAssignment
	upserted []models.StudentPeriodAssignment
}

func (s *assignmentStoreStub) CountByGroupAndPeriod(ctx context.Context, exec sqlx.ExtContext, classGroupID, academicYear string, semester models.Semester) (int, error) {
	return s.counts[classGroupID], nil
}

func (s *assignmentStoreStub) FindByStudentAndPeriod(ctx context.Context, exec sqlx.ExtContext, studentID, academicYear string, semester models.Semester) (*models.StudentPeriodAssignment, error) {
	if a, ok := s.existing[studentID]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudentPeriodAssignment) error {
	if assignment.ID == "" {
		assignment.ID = "a-new"
	}
	s.upserted = append(s.upserted, *assignment)
	if s.existing == nil {
		s.existing = make(map[string]models.StudentPeriodAssignment)
	}
	s.existing[assignment.StudentID] = *assignment
	return nil
}

type quotaStub struct {
	err         error
	invalidated []string
}

func (q *quotaStub) Evaluate(ctx context.Context, majorID, academicYear string) error {
	return q.err
}

func (q *quotaStub) InvalidateStatus(ctx context.Context, majorID string) {
	q.invalidated = append(q.invalidated, majorID)
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
