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

type sessionStore interface {
	FindByNaturalKey(ctx context.Context, exec sqlx.ExtContext, courseID string, sessionDate time.Time, startTime string, roomID *string, roomLabel string) (*models.ClassSession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	HasAttendance(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CreateSessionRequest describes an ad-hoc dated session, e.g. a make-up
// meeting outside the weekly pattern.
type CreateSessionRequest struct {
	CourseID    string  `json:"course_id" validate:"required"`
	SessionDate string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string  `json:"end_time" validate:"required,datetime=15:04"`
	RoomID      *string `json:"room_id,omitempty"`
	RoomLabel   string  `json:"room_label,omitempty"`
	SessionType string  `json:"session_type" validate:"required,oneof=LECTURE LAB EXAM"`
}

// ClassSessionService manages dated sessions outside of template generation.
type ClassSessionService struct {
	sessions  sessionStore
	db        sqlx.ExtContext
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassSessionService wires session dependencies. db is the non-transactional
// executor handed to natural-key lookups and creates.
func NewClassSessionService(sessions sessionStore, db sqlx.ExtContext, validate *validator.Validate, logger *zap.Logger) *ClassSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassSessionService{sessions: sessions, db: db, validator: validate, logger: logger}
}

// List returns sessions matching the filter with pagination metadata.
func (s *ClassSessionService) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, *models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one session by id.
func (s *ClassSessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Create stores an ad-hoc session. A session already occupying the same
// natural key is a conflict, never silently replaced.
func (s *ClassSessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if req.RoomID == nil && req.RoomLabel == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a room_id or room_label is required")
	}
	date, err := time.ParseInLocation("2006-01-02", req.SessionDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session_date must be YYYY-MM-DD")
	}

	if _, err := s.sessions.FindByNaturalKey(ctx, s.db, req.CourseID, date, req.StartTime, req.RoomID, req.RoomLabel); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a session already exists for this course, date, time and room")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for existing session")
	}

	session := &models.ClassSession{
		CourseID:    req.CourseID,
		SessionDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		RoomID:      req.RoomID,
		RoomLabel:   req.RoomLabel,
		SessionType: req.SessionType,
	}
	if err := s.sessions.Create(ctx, s.db, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("course_id", session.CourseID),
		zap.String("session_date", req.SessionDate))
	return session, nil
}

// Delete removes a session unless attendance has been recorded against it.
func (s *ClassSessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	recorded, err := s.sessions.HasAttendance(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session attendance")
	}
	if recorded {
		return appErrors.Clone(appErrors.ErrConflict, "session has recorded attendance and cannot be deleted")
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}
