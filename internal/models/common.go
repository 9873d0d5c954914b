package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Semester identifies the half (or short term) of an academic year.
type Semester string

const (
	SemesterOdd   Semester = "ODD"
	SemesterEven  Semester = "EVEN"
	SemesterShort Semester = "SHORT"
)

// Shift labels the daily teaching shift of a class group.
const (
	ShiftMorning   = "MORNING"
	ShiftAfternoon = "AFTERNOON"
	ShiftEvening   = "EVENING"
)
