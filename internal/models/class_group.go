package models

import "time"

// ClassGroup is a capacity-limited cohort for a (major, academic_year,
// semester, shift) tuple. Seats used are never stored; they are recounted
// from assignment rows.
type ClassGroup struct {
	ID           string    `db:"id" json:"id"`
	MajorID      string    `db:"major_id" json:"major_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     Semester  `db:"semester" json:"semester"`
	Shift        *string   `db:"shift" json:"shift,omitempty"`
	Name         string    `db:"name" json:"name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassGroupSeats pairs a group with its live assignment count.
type ClassGroupSeats struct {
	ClassGroup
	SeatsUsed int `db:"seats_used" json:"seats_used"`
}

// SeatsFree returns the remaining capacity, never negative.
func (g ClassGroupSeats) SeatsFree() int {
	free := g.Capacity - g.SeatsUsed
	if free < 0 {
		return 0
	}
	return free
}

// ClassGroupFilter defines filter criteria for listing class groups.
type ClassGroupFilter struct {
	MajorID      string
	AcademicYear string
	Semester     Semester
	Shift        string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
