package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestQuotaRepositoryFindByMajorAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuotaRepository(db)

	opens := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	closes := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "major_id", "academic_year", "admission_limit", "opens_at", "closes_at", "created_at", "updated_at"}).
		AddRow("q-1", "m-1", "2026/2027", 120, opens, closes, time.Now(), time.Now())
	mock.ExpectQuery(`FROM major_quotas WHERE major_id = \$1 AND academic_year = \$2`).
		WithArgs("m-1", "2026/2027").
		WillReturnRows(rows)

	quota, err := repo.FindByMajorAndYear(context.Background(), "m-1", "2026/2027")
	require.NoError(t, err)
	require.Equal(t, 120, quota.Limit)
	require.True(t, quota.WindowOpen(time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)))
	require.False(t, quota.WindowOpen(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepositoryFindByMajorAndYearPassesThroughNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuotaRepository(db)

	mock.ExpectQuery(`FROM major_quotas`).
		WithArgs("m-2", "2026/2027").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByMajorAndYear(context.Background(), "m-2", "2026/2027")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
