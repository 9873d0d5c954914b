package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/akademik-core/internal/models"
)

// ClassGroupRepository handles persistence of class groups.
type ClassGroupRepository struct {
	db *sqlx.DB
}

// NewClassGroupRepository constructs the repository.
func NewClassGroupRepository(db *sqlx.DB) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

const classGroupColumns = `id, major_id, academic_year, semester, shift, name, capacity, created_at, updated_at`

// List returns class groups with their live seat usage for the given filter.
func (r *ClassGroupRepository) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupSeats, int, error) {
	base := `FROM class_groups g`
	var conditions []string
	var args []interface{}

	if filter.MajorID != "" {
		conditions = append(conditions, fmt.Sprintf("g.major_id = $%d", len(args)+1))
		args = append(args, filter.MajorID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("g.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("g.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Shift != "" {
		conditions = append(conditions, fmt.Sprintf("g.shift = $%d", len(args)+1))
		args = append(args, filter.Shift)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "g.name",
		"capacity":   "g.capacity",
		"created_at": "g.created_at",
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "g.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT g.id, g.major_id, g.academic_year, g.semester, g.shift, g.name, g.capacity, g.created_at, g.updated_at,
        (SELECT COUNT(*) FROM student_period_assignments a
         WHERE a.class_group_id = g.id AND a.academic_year = g.academic_year AND a.semester = g.semester) AS seats_used
        %s ORDER BY %s %s, g.id ASC LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var groups []models.ClassGroupSeats
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class groups: %w", err)
	}
	return groups, total, nil
}

// FindByID loads a class group by id.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_groups WHERE id = $1`, classGroupColumns)
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByIDForUpdate loads a class group inside the transaction holding an
// exclusive row lock until commit or rollback.
func (r *ClassGroupRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.ClassGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_groups WHERE id = $1 FOR UPDATE`, classGroupColumns)
	var group models.ClassGroup
	if err := tx.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindAvailable returns the oldest group of the tuple whose live assignment
// count is strictly below its capacity, so repeated calls converge on the
// same currently-filling group. A nil shift matches groups without a shift.
func (r *ClassGroupRepository) FindAvailable(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (*models.ClassGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_groups g
        WHERE g.major_id = $1 AND g.academic_year = $2 AND g.semester = $3
          AND (($4::text IS NULL AND g.shift IS NULL) OR g.shift = $4)
          AND (SELECT COUNT(*) FROM student_period_assignments a
               WHERE a.class_group_id = g.id AND a.academic_year = $2 AND a.semester = $3) < g.capacity
        ORDER BY g.created_at ASC, g.id ASC
        LIMIT 1`, prefixColumns("g", classGroupColumns))
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, majorID, academicYear, semester, shift); err != nil {
		return nil, err
	}
	return &group, nil
}

// NextSequence returns the next sequential name suffix within the tuple.
func (r *ClassGroupRepository) NextSequence(ctx context.Context, majorID, academicYear string, semester models.Semester, shift *string) (int, error) {
	const query = `SELECT COUNT(*) + 1 FROM class_groups
        WHERE major_id = $1 AND academic_year = $2 AND semester = $3
          AND (($4::text IS NULL AND shift IS NULL) OR shift = $4)`
	var seq int
	if err := r.db.GetContext(ctx, &seq, query, majorID, academicYear, semester, shift); err != nil {
		return 0, fmt.Errorf("next class group sequence: %w", err)
	}
	return seq, nil
}

// Create persists a new class group.
func (r *ClassGroupRepository) Create(ctx context.Context, group *models.ClassGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	const query = `INSERT INTO class_groups (id, major_id, academic_year, semester, shift, name, capacity, created_at, updated_at)
        VALUES (:id, :major_id, :academic_year, :semester, :shift, :name, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create class group: %w", err)
	}
	return nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
