package usecase

import (
	"context"

	"github.com/imobcrm/erpsync/internal/domain"
)

const maxListLimit = 200

// LicenseUsecase serves the read side of imported data per license.
type LicenseUsecase struct {
	runs      SyncRunRepository
	contracts ContractQueryRepository
}

func NewLicenseUsecase(runs SyncRunRepository, contracts ContractQueryRepository) *LicenseUsecase {
	return &LicenseUsecase{runs: runs, contracts: contracts}
}

func (uc *LicenseUsecase) Runs(ctx context.Context, licenseID string, limit int) ([]domain.SyncSummary, error) {
	return uc.runs.ListRecent(ctx, licenseID, clampLimit(limit))
}

func (uc *LicenseUsecase) Contracts(ctx context.Context, licenseID string, limit, offset int) ([]domain.ContractOverview, error) {
	if offset < 0 {
		offset = 0
	}
	return uc.contracts.ListContracts(ctx, licenseID, clampLimit(limit), offset)
}

func (uc *LicenseUsecase) Contract(ctx context.Context, licenseID string, externalID int64) (domain.Contract, error) {
	return uc.contracts.GetContract(ctx, licenseID, externalID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
