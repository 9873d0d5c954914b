package models

import "time"

// MajorQuota is an admission window plus a hard limit for a (major,
// academic_year) pair. Absence of a row means unlimited and always open.
type MajorQuota struct {
	ID           string    `db:"id" json:"id"`
	MajorID      string    `db:"major_id" json:"major_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Limit        int       `db:"admission_limit" json:"limit"`
	OpensAt      time.Time `db:"opens_at" json:"opens_at"`
	ClosesAt     time.Time `db:"closes_at" json:"closes_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WindowOpen reports whether the admission window contains the given instant.
func (q *MajorQuota) WindowOpen(at time.Time) bool {
	if q == nil {
		return true
	}
	return !at.Before(q.OpensAt) && !at.After(q.ClosesAt)
}

// QuotaStatus is the advisory view of a quota for presentation.
type QuotaStatus struct {
	MajorID      string     `json:"major_id"`
	AcademicYear string     `json:"academic_year"`
	Limited      bool       `json:"limited"`
	Limit        int        `json:"limit,omitempty"`
	Used         int        `json:"used"`
	Remaining    int        `json:"remaining,omitempty"`
	WindowOpen   bool       `json:"window_open"`
	OpensAt      *time.Time `json:"opens_at,omitempty"`
	ClosesAt     *time.Time `json:"closes_at,omitempty"`
	CheckedAt    time.Time  `json:"checked_at"`
}
