package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/akademika-dev/akademik-core/internal/models"
)

func classSessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "course_id", "session_date", "start_time", "end_time", "room_id", "room_label", "session_type", "created_at", "updated_at"}).
		AddRow("sess-1", "course-1", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), "08:00", "10:40", nil, "B-201", "LECTURE", time.Now(), time.Now())
}

func TestClassSessionRepositoryFindByNaturalKeyWithRoomLabel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM class_sessions[\s\S]*room_id IS NULL AND room_label = \$4`).
		WithArgs("course-1", date, "08:00", "B-201").
		WillReturnRows(classSessionRows())

	session, err := repo.FindByNaturalKey(context.Background(), db, "course-1", date, "08:00", nil, "B-201")
	require.NoError(t, err)
	require.Equal(t, "sess-1", session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindByNaturalKeyPrefersRoomID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	roomID := "room-7"
	mock.ExpectQuery(`FROM class_sessions[\s\S]*AND room_id = \$4`).
		WithArgs("course-1", date, "08:00", roomID).
		WillReturnRows(classSessionRows())

	_, err := repo.FindByNaturalKey(context.Background(), db, "course-1", date, "08:00", &roomID, "ignored")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(`INSERT INTO class_sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.ClassSession{
		CourseID:    "course-1",
		SessionDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:00",
		EndTime:     "10:40",
		RoomLabel:   "B-201",
		SessionType: "LECTURE",
	}
	require.NoError(t, repo.Create(context.Background(), db, session))
	require.NotEmpty(t, session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryUpdateKeepsKeyFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(`UPDATE class_sessions[\s\S]*SET end_time =`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.ClassSession{ID: "sess-1", EndTime: "11:30", RoomLabel: "B-201", SessionType: "LECTURE"}
	require.NoError(t, repo.Update(context.Background(), db, session))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryHasAttendance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM attendance_records WHERE class_session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM attendance_records WHERE class_session_id = \$1`).
		WithArgs("sess-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	recorded, err := repo.HasAttendance(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, recorded)

	recorded, err = repo.HasAttendance(context.Background(), "sess-2")
	require.NoError(t, err)
	require.False(t, recorded)
	require.NoError(t, mock.ExpectationsWereMet())
}
