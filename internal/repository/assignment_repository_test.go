package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/akademika-dev/akademik-core/internal/models"
)

func TestAssignmentRepositoryCountByGroupAndPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM student_period_assignments`).
		WithArgs("g-1", "2026/2027", models.SemesterOdd).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	count, err := repo.CountByGroupAndPeriod(context.Background(), db, "g-1", "2026/2027", models.SemesterOdd)
	require.NoError(t, err)
	require.Equal(t, 17, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByStudentAndPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_group_id", "academic_year", "semester", "assigned_at", "updated_at"}).
		AddRow("a-1", "s-1", "g-1", "2026/2027", "ODD", time.Now(), time.Now())
	mock.ExpectQuery(`FROM student_period_assignments[\s\S]*WHERE student_id = \$1`).
		WithArgs("s-1", "2026/2027", models.SemesterOdd).
		WillReturnRows(rows)

	assignment, err := repo.FindByStudentAndPeriod(context.Background(), db, "s-1", "2026/2027", models.SemesterOdd)
	require.NoError(t, err)
	require.Equal(t, "g-1", assignment.ClassGroupID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpsertRepointsGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(`ON CONFLICT \(student_id, academic_year, semester\)[\s\S]*DO UPDATE SET class_group_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.StudentPeriodAssignment{StudentID: "s-1", ClassGroupID: "g-2", AcademicYear: "2026/2027", Semester: models.SemesterOdd}
	require.NoError(t, repo.Upsert(context.Background(), db, assignment))
	require.NotEmpty(t, assignment.ID)
	require.False(t, assignment.AssignedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountAdmittedByMajorAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT a\.student_id\) FROM student_period_assignments a[\s\S]*JOIN class_groups g`).
		WithArgs("m-1", "2026/2027").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(88))

	count, err := repo.CountAdmittedByMajorAndYear(context.Background(), "m-1", "2026/2027")
	require.NoError(t, err)
	require.Equal(t, 88, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
