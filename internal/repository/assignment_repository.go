package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/akademik-core/internal/models"
)

// AssignmentRepository handles persistence of student period assignments.
// Mutating and counting methods accept an sqlx.ExtContext so the allocator
// can run them inside its own locking transaction.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, student_id, class_group_id, academic_year, semester, assigned_at, updated_at`

// CountByGroupAndPeriod counts live assignment rows for a group and period.
// Seats used are always recomputed this way, never kept in a counter column.
func (r *AssignmentRepository) CountByGroupAndPeriod(ctx context.Context, exec sqlx.ExtContext, classGroupID, academicYear string, semester models.Semester) (int, error) {
	const query = `SELECT COUNT(*) FROM student_period_assignments
        WHERE class_group_id = $1 AND academic_year = $2 AND semester = $3`
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, query, classGroupID, academicYear, semester); err != nil {
		return 0, fmt.Errorf("count group assignments: %w", err)
	}
	return count, nil
}

// FindByStudentAndPeriod returns a student's assignment for a period, if any.
func (r *AssignmentRepository) FindByStudentAndPeriod(ctx context.Context, exec sqlx.ExtContext, studentID, academicYear string, semester models.Semester) (*models.StudentPeriodAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_period_assignments
        WHERE student_id = $1 AND academic_year = $2 AND semester = $3`, assignmentColumns)
	var assignment models.StudentPeriodAssignment
	if err := sqlx.GetContext(ctx, exec, &assignment, query, studentID, academicYear, semester); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Upsert inserts the assignment or, when the student already holds one for
// the period, repoints it at the new class group.
func (r *AssignmentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudentPeriodAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO student_period_assignments (id, student_id, class_group_id, academic_year, semester, assigned_at, updated_at)
        VALUES (:id, :student_id, :class_group_id, :academic_year, :semester, :assigned_at, :updated_at)
        ON CONFLICT (student_id, academic_year, semester)
        DO UPDATE SET class_group_id = EXCLUDED.class_group_id, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, assignment); err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// CountAdmittedByMajorAndYear counts all assignments admitted under a major
// for an academic year, across that major's groups and both semesters.
func (r *AssignmentRepository) CountAdmittedByMajorAndYear(ctx context.Context, majorID, academicYear string) (int, error) {
	const query = `SELECT COUNT(DISTINCT a.student_id) FROM student_period_assignments a
        JOIN class_groups g ON g.id = a.class_group_id
        WHERE g.major_id = $1 AND a.academic_year = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, majorID, academicYear); err != nil {
		return 0, fmt.Errorf("count major admissions: %w", err)
	}
	return count, nil
}

// ListByGroupAndPeriod returns the assignments currently held by a group.
func (r *AssignmentRepository) ListByGroupAndPeriod(ctx context.Context, classGroupID, academicYear string, semester models.Semester) ([]models.StudentPeriodAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_period_assignments
        WHERE class_group_id = $1 AND academic_year = $2 AND semester = $3
        ORDER BY assigned_at ASC`, assignmentColumns)
	var assignments []models.StudentPeriodAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, classGroupID, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	return assignments, nil
}
