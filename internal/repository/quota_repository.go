package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/akademik-core/internal/models"
)

// QuotaRepository reads major admission quotas.
type QuotaRepository struct {
	db *sqlx.DB
}

// NewQuotaRepository constructs the repository.
func NewQuotaRepository(db *sqlx.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// FindByMajorAndYear returns the quota row for a (major, academic_year) pair.
// sql.ErrNoRows is passed through; an absent quota means unlimited admission.
func (r *QuotaRepository) FindByMajorAndYear(ctx context.Context, majorID, academicYear string) (*models.MajorQuota, error) {
	const query = `SELECT id, major_id, academic_year, admission_limit, opens_at, closes_at, created_at, updated_at
        FROM major_quotas WHERE major_id = $1 AND academic_year = $2`
	var quota models.MajorQuota
	if err := r.db.GetContext(ctx, &quota, query, majorID, academicYear); err != nil {
		return nil, err
	}
	return &quota, nil
}
