package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akademika-dev/akademik-core/internal/models"
	appErrors "github.com/akademika-dev/akademik-core/pkg/errors"
)

type templateReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error)
	List(ctx context.Context, courseID string) ([]models.ScheduleTemplate, error)
}

type sessionWriter interface {
	FindByNaturalKey(ctx context.Context, exec sqlx.ExtContext, courseID string, sessionDate time.Time, startTime string, roomID *string, roomLabel string) (*models.ClassSession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
}

// GenerateSessionsRequest describes a generation run over a date range.
// CourseID narrows the run to one course's templates; empty means all.
type GenerateSessionsRequest struct {
	CourseID  string `json:"course_id,omitempty"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Overwrite bool   `json:"overwrite"`
}

// SessionGeneratorService expands weekly schedule templates into dated class
// sessions. A whole run commits in one transaction: on any storage failure
// nothing is written. Date arithmetic is calendar-day based, so a DST shift
// inside the range cannot skip or double a week.
type SessionGeneratorService struct {
	templates templateReader
	sessions  sessionWriter
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionGeneratorService wires generator dependencies.
func NewSessionGeneratorService(templates templateReader, sessions sessionWriter, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SessionGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGeneratorService{
		templates: templates,
		sessions:  sessions,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// GenerateForRange runs every matching template over [start, end] inclusive.
func (s *SessionGeneratorService) GenerateForRange(ctx context.Context, req GenerateSessionsRequest) (*models.GenerationSummary, error) {
	start, end, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}
	templates, err := s.templates.List(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule templates")
	}
	return s.generate(ctx, templates, start, end, req.Overwrite)
}

// GenerateForTemplate runs a single template over [start, end] inclusive.
func (s *SessionGeneratorService) GenerateForTemplate(ctx context.Context, templateID string, req GenerateSessionsRequest) (*models.GenerationSummary, error) {
	start, end, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule template")
	}
	return s.generate(ctx, []models.ScheduleTemplate{*tmpl}, start, end, req.Overwrite)
}

func (s *SessionGeneratorService) parseRange(req GenerateSessionsRequest) (time.Time, time.Time, error) {
	if err := s.validator.Struct(req); err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}
	return start, end, nil
}

func (s *SessionGeneratorService) generate(ctx context.Context, templates []models.ScheduleTemplate, start, end time.Time, overwrite bool) (*models.GenerationSummary, error) {
	began := time.Now()
	summary := &models.GenerationSummary{
		StartDate: start,
		EndDate:   end,
		Overwrite: overwrite,
		Results:   make([]models.TemplateGenerationResult, 0, len(templates)),
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

	for i := range templates {
		tmpl := &templates[i]
		result, genErr := s.generateForTemplate(ctx, tx, tmpl, start, end, overwrite)
		if genErr != nil {
			err = genErr
			return nil, err
		}
		summary.Results = append(summary.Results, result)
		summary.Generated += result.Generated
		summary.Skipped += result.Skipped
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated sessions")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSessions("generated", summary.Generated)
		s.metrics.RecordSessions("skipped", summary.Skipped)
		s.metrics.ObserveGeneration(time.Since(began))
	}
	s.logger.Info("session generation completed",
		zap.Int("templates", len(templates)),
		zap.Int("generated", summary.Generated),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("overwrite", overwrite))
	return summary, nil
}

func (s *SessionGeneratorService) generateForTemplate(ctx context.Context, tx *sqlx.Tx, tmpl *models.ScheduleTemplate, start, end time.Time, overwrite bool) (models.TemplateGenerationResult, error) {
	result := models.TemplateGenerationResult{TemplateID: tmpl.ID, CourseID: tmpl.CourseID}

	if !tmpl.DayOfWeek.Valid() {
		// A template whose stored weekday no longer parses produces no
		// sessions; the rest of the batch proceeds.
		s.logger.Warn("schedule template has no usable weekday",
			zap.String("template_id", tmpl.ID),
			zap.String("course_id", tmpl.CourseID))
		return result, nil
	}

	cursor := start
	for cursor.Weekday() != tmpl.DayOfWeek.Time() {
		cursor = cursor.AddDate(0, 0, 1)
		if cursor.After(end) {
			return result, nil
		}
	}

	for !cursor.After(end) {
		existing, err := s.sessions.FindByNaturalKey(ctx, tx, tmpl.CourseID, cursor, tmpl.StartTime, tmpl.RoomID, tmpl.RoomLabel)
		switch {
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up existing session")
		case err != nil:
			session := &models.ClassSession{
				CourseID:    tmpl.CourseID,
				SessionDate: cursor,
				StartTime:   tmpl.StartTime,
				EndTime:     tmpl.EndTime,
				RoomID:      tmpl.RoomID,
				RoomLabel:   tmpl.RoomLabel,
				SessionType: tmpl.SessionType,
			}
			if err := s.sessions.Create(ctx, tx, session); err != nil {
				return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
			}
			result.Generated++
		case overwrite:
			existing.EndTime = tmpl.EndTime
			existing.RoomID = tmpl.RoomID
			existing.RoomLabel = tmpl.RoomLabel
			existing.SessionType = tmpl.SessionType
			if err := s.sessions.Update(ctx, tx, existing); err != nil {
				return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to overwrite session")
			}
			result.Generated++
		default:
			result.Skipped++
		}
		cursor = cursor.AddDate(0, 0, 7)
	}
	return result, nil
}
