package models

import "time"

// StudentPeriodAssignment binds a student to exactly one class group per
// (academic_year, semester) period. Uniqueness of (student_id, academic_year,
// semester) is a hard constraint at the storage layer; re-assignment within
// the same period replaces the previous group.
type StudentPeriodAssignment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	ClassGroupID string    `db:"class_group_id" json:"class_group_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     Semester  `db:"semester" json:"semester"`
	AssignedAt   time.Time `db:"assigned_at" json:"assigned_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
