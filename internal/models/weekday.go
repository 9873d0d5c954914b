package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday is a closed enumeration over the seven weekdays. The zero value is
// invalid; external input is validated at the boundary via ParseWeekday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[Weekday]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

var weekdayValues = map[string]Weekday{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
	"SUNDAY":    Sunday,
}

// ParseWeekday maps a weekday name to its enum value.
func ParseWeekday(raw string) (Weekday, error) {
	if d, ok := weekdayValues[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unrecognized weekday %q", raw)
}

// Valid reports whether the value is one of the seven weekdays.
func (d Weekday) Valid() bool {
	_, ok := weekdayNames[d]
	return ok
}

// String returns the canonical uppercase name, or an empty string when invalid.
func (d Weekday) String() string {
	return weekdayNames[d]
}

// Time maps the enum onto time.Weekday for calendar arithmetic.
func (d Weekday) Time() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

// Value stores the canonical name.
func (d Weekday) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return d.String(), nil
}

// Scan reads a stored weekday name. Unknown names scan to the invalid zero
// value rather than failing, so one malformed row cannot poison a whole batch.
func (d *Weekday) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*d = 0
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Weekday", src)
	}
	parsed, err := ParseWeekday(raw)
	if err != nil {
		*d = 0
		return nil
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the canonical name.
func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON rejects names outside the closed set.
func (d *Weekday) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWeekday(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
