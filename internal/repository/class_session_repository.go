package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/akademik-core/internal/models"
)

// ClassSessionRepository handles persistence of dated class sessions.
// Mutating and lookup methods take an sqlx.ExtContext so the generator can
// keep a whole batch inside one transaction.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

const sessionColumns = `id, course_id, session_date, start_time, end_time, room_id, room_label, session_type, created_at, updated_at`

// FindByNaturalKey looks a session up by (course, date, start_time, room
// identity). The structured room id wins over the free-text label when the
// template carries one.
func (r *ClassSessionRepository) FindByNaturalKey(ctx context.Context, exec sqlx.ExtContext, courseID string, sessionDate time.Time, startTime string, roomID *string, roomLabel string) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions
        WHERE course_id = $1 AND session_date = $2 AND start_time = $3`, sessionColumns)
	args := []interface{}{courseID, sessionDate, startTime}
	if roomID != nil {
		query += " AND room_id = $4"
		args = append(args, *roomID)
	} else {
		query += " AND room_id IS NULL AND room_label = $4"
		args = append(args, roomLabel)
	}
	var session models.ClassSession
	if err := sqlx.GetContext(ctx, exec, &session, query, args...); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session. The natural-key unique constraint backs this up
// against concurrent writers outside the generator's transaction.
func (r *ClassSessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO class_sessions (id, course_id, session_date, start_time, end_time, room_id, room_label, session_type, created_at, updated_at)
        VALUES (:id, :course_id, :session_date, :start_time, :end_time, :room_id, :room_label, :session_type, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, session); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// Update rewrites the non-key fields of an existing session.
func (r *ClassSessionRepository) Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions
        SET end_time = :end_time, room_id = :room_id, room_label = :room_label,
            session_type = :session_type, updated_at = :updated_at
        WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, session); err != nil {
		return fmt.Errorf("update class session: %w", err)
	}
	return nil
}

// List returns sessions filtered by course and date window.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error) {
	base := "FROM class_sessions"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY session_date ASC, start_time ASC LIMIT %d OFFSET %d`, sessionColumns, base+clause, size, offset)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID loads a session by id.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1`, sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// HasAttendance reports whether attendance rows reference the session.
func (r *ClassSessionRepository) HasAttendance(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM attendance_records WHERE class_session_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session attendance: %w", err)
	}
	return true, nil
}

// Delete removes a session by id.
func (r *ClassSessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM class_sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	return nil
}
