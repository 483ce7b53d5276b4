package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/infra/database/models"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.SyncRunRepository = (*SyncRunRepository)(nil)

type SyncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Save(ctx context.Context, summary domain.SyncSummary) error {
	row, err := runToModel(summary)
	if err != nil {
		return errors.Wrap(err, "encode run errors")
	}
	return errors.Wrap(r.db.WithContext(ctx).Save(&row).Error, "save sync run")
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, licenseID string, limit int) ([]domain.SyncSummary, error) {
	var rows []models.SyncRun
	err := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list sync runs")
	}

	runs := make([]domain.SyncSummary, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, runFromModel(row))
	}
	return runs, nil
}
