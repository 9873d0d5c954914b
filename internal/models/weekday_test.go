package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(" wednesday ")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	_, err = ParseWeekday("FUNDAY")
	assert.Error(t, err)
}

func TestWeekdayTimeMapping(t *testing.T) {
	assert.Equal(t, time.Monday, Monday.Time())
	assert.Equal(t, time.Saturday, Saturday.Time())
	assert.Equal(t, time.Sunday, Sunday.Time())
}

func TestWeekdayScanToleratesUnknownNames(t *testing.T) {
	var day Weekday
	require.NoError(t, day.Scan("THURSDAY"))
	assert.Equal(t, Thursday, day)

	require.NoError(t, day.Scan("NOT-A-DAY"))
	assert.False(t, day.Valid())

	require.NoError(t, day.Scan(nil))
	assert.False(t, day.Valid())
}

func TestWeekdayValueRejectsInvalid(t *testing.T) {
	_, err := Weekday(0).Value()
	assert.Error(t, err)

	v, err := Friday.Value()
	require.NoError(t, err)
	assert.Equal(t, "FRIDAY", v)
}

func TestWeekdayJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Tuesday)
	require.NoError(t, err)
	assert.Equal(t, `"TUESDAY"`, string(data))

	var day Weekday
	require.NoError(t, json.Unmarshal([]byte(`"SUNDAY"`), &day))
	assert.Equal(t, Sunday, day)

	assert.Error(t, json.Unmarshal([]byte(`"NOPE"`), &day))
}
