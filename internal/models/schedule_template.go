package models

import "time"

// ScheduleTemplate declares a recurring weekly slot for a course. Its
// duplicate identity is (course, day_of_week, start_time, room identity),
// where a structured room id takes precedence over the free-text label.
type ScheduleTemplate struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	DayOfWeek   Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	RoomLabel   string    `db:"room_label" json:"room_label"`
	SessionType string    `db:"session_type" json:"session_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RoomAvailability reports whether a proposed weekly slot is free of overlaps
// with existing templates on the same room and weekday.
type RoomAvailability struct {
	Available bool               `json:"available"`
	Conflicts []ScheduleTemplate `json:"conflicts,omitempty"`
}
