package models

import "time"

// ClassSession is one dated occurrence of a course meeting. The natural key
// (course_id, session_date, start_time, room identity) is enforced by the
// storage layer; the generator and ad-hoc creation both rely on it.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	RoomLabel   string    `db:"room_label" json:"room_label"`
	SessionType string    `db:"session_type" json:"session_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSessionFilter describes query params for listing sessions.
type ClassSessionFilter struct {
	CourseID string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TemplateGenerationResult is the per-template outcome of a generation run.
type TemplateGenerationResult struct {
	TemplateID string `json:"template_id"`
	CourseID   string `json:"course_id"`
	Generated  int    `json:"generated"`
	Skipped    int    `json:"skipped"`
}

// GenerationSummary aggregates a whole generation batch.
type GenerationSummary struct {
	StartDate time.Time                  `json:"start_date"`
	EndDate   time.Time                  `json:"end_date"`
	Overwrite bool                       `json:"overwrite"`
	Results   []TemplateGenerationResult `json:"results"`
	Generated int                        `json:"generated"`
	Skipped   int                        `json:"skipped"`
}
