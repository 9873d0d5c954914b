package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

type templateStore interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error)
	List(ctx context.Context, courseID string) ([]models.ScheduleTemplate, error)
	Create(ctx context.Context, template *models.ScheduleTemplate) error
	Update(ctx context.Context, template *models.ScheduleTemplate) error
	Delete(ctx context.Context, id string) error
	FindOverlapping(ctx context.Context, roomID *string, roomLabel string, day models.Weekday, startTime, endTime, excludeID string) ([]models.ScheduleTemplate, error)
}

// TemplateRequest carries a weekly slot definition. Times are HH:MM strings;
// zero-padded 24-hour values order correctly as text.
type TemplateRequest struct {
	CourseID    string  `json:"course_id" validate:"required"`
	DayOfWeek   string  `json:"day_of_week" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string  `json:"end_time" validate:"required,datetime=15:04"`
	RoomID      *string `json:"room_id,omitempty"`
	RoomLabel   string  `json:"room_label,omitempty"`
	SessionType string  `json:"session_type" validate:"required,oneof=LECTURE LAB EXAM"`
}

// AvailabilityRequest asks whether a weekly room slot is free.
type AvailabilityRequest struct {
	DayOfWeek string  `json:"day_of_week" validate:"required"`
	StartTime string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string  `json:"end_time" validate:"required,datetime=15:04"`
	RoomID    *string `json:"room_id,omitempty"`
	RoomLabel string  `json:"room_label,omitempty"`
	ExcludeID string  `json:"exclude_id,omitempty"`
}

// TemplateService manages weekly schedule templates and room slot checks.
type TemplateService struct {
	templates templateStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService wires template dependencies.
func NewTemplateService(templates templateStore, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{templates: templates, validator: validate, logger: logger}
}

// List returns templates, optionally narrowed to one course.
func (s *TemplateService) List(ctx context.Context, courseID string) ([]models.ScheduleTemplate, error) {
	templates, err := s.templates.List(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule templates")
	}
	return templates, nil
}

// Get returns one template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	tmpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule template")
	}
	return tmpl, nil
}

// Create validates and stores a new weekly template.
func (s *TemplateService) Create(ctx context.Context, req TemplateRequest) (*models.ScheduleTemplate, error) {
	tmpl, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule template")
	}
	s.logger.Info("schedule template created",
		zap.String("template_id", tmpl.ID),
		zap.String("course_id", tmpl.CourseID),
		zap.String("day_of_week", tmpl.DayOfWeek.String()))
	return tmpl, nil
}

// Update replaces the slot definition of an existing template.
func (s *TemplateService) Update(ctx context.Context, id string, req TemplateRequest) (*models.ScheduleTemplate, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	tmpl, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	tmpl.ID = id
	if err := s.templates.Update(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule template")
	}
	return tmpl, nil
}

// Delete removes a template. Sessions already generated from it stay.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule template")
	}
	return nil
}

// CheckAvailability reports whether the proposed weekly slot overlaps any
// existing template in the same room. Two slots overlap when one starts
// before the other ends on both sides; touching boundaries do not conflict.
func (s *TemplateService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*models.RoomAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	day, err := models.ParseWeekday(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	conflicts, err := s.templates.FindOverlapping(ctx, req.RoomID, req.RoomLabel, day, req.StartTime, req.EndTime, req.ExcludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	return &models.RoomAvailability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

func (s *TemplateService) buildTemplate(req TemplateRequest) (*models.ScheduleTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	day, err := models.ParseWeekday(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if req.RoomID == nil && req.RoomLabel == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a room_id or room_label is required")
	}
	return &models.ScheduleTemplate{
		CourseID:    req.CourseID,
		DayOfWeek:   day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		RoomID:      req.RoomID,
		RoomLabel:   req.RoomLabel,
		SessionType: req.SessionType,
	}, nil
}
