package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/akademik-core/internal/models"
)

// ScheduleTemplateRepository handles persistence of recurring weekly slots.
type ScheduleTemplateRepository struct {
	db *sqlx.DB
}

// NewScheduleTemplateRepository constructs the repository.
func NewScheduleTemplateRepository(db *sqlx.DB) *ScheduleTemplateRepository {
	return &ScheduleTemplateRepository{db: db}
}

const templateColumns = `id, course_id, day_of_week, start_time, end_time, room_id, room_label, session_type, created_at, updated_at`

// FindByID loads a template by id.
func (r *ScheduleTemplateRepository) FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_templates WHERE id = $1`, templateColumns)
	var template models.ScheduleTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// List returns templates, optionally narrowed to one course.
func (r *ScheduleTemplateRepository) List(ctx context.Context, courseID string) ([]models.ScheduleTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_templates`, templateColumns)
	var args []interface{}
	if courseID != "" {
		query += " WHERE course_id = $1"
		args = append(args, courseID)
	}
	query += " ORDER BY course_id ASC, day_of_week ASC, start_time ASC"
	var templates []models.ScheduleTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule templates: %w", err)
	}
	return templates, nil
}

// Create persists a new template.
func (r *ScheduleTemplateRepository) Create(ctx context.Context, template *models.ScheduleTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now
	const query = `INSERT INTO schedule_templates (id, course_id, day_of_week, start_time, end_time, room_id, room_label, session_type, created_at, updated_at)
        VALUES (:id, :course_id, :day_of_week, :start_time, :end_time, :room_id, :room_label, :session_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create schedule template: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a template.
func (r *ScheduleTemplateRepository) Update(ctx context.Context, template *models.ScheduleTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_templates
        SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
            room_id = :room_id, room_label = :room_label, session_type = :session_type, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update schedule template: %w", err)
	}
	return nil
}

// Delete removes a template. Sessions already generated from it stay.
func (r *ScheduleTemplateRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedule_templates WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule template: %w", err)
	}
	return nil
}

// FindOverlapping returns templates on the same room and weekday whose
// [start_time, end_time) interval overlaps the proposed one. The room is
// matched on the structured id when supplied, else on the free-text label.
func (r *ScheduleTemplateRepository) FindOverlapping(ctx context.Context, roomID *string, roomLabel string, day models.Weekday, startTime, endTime, excludeID string) ([]models.ScheduleTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_templates
        WHERE day_of_week = $1 AND start_time < $2 AND end_time > $3`, templateColumns)
	args := []interface{}{day, endTime, startTime}
	if roomID != nil {
		query += fmt.Sprintf(" AND room_id = $%d", len(args)+1)
		args = append(args, *roomID)
	} else {
		query += fmt.Sprintf(" AND room_id IS NULL AND room_label = $%d", len(args)+1)
		args = append(args, roomLabel)
	}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC"
	var templates []models.ScheduleTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping templates: %w", err)
	}
	return templates, nil
}
