package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/infra/database/models"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.ContractQueryRepository = (*ContractRepository)(nil)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) ListContracts(ctx context.Context, licenseID string, limit, offset int) ([]domain.ContractOverview, error) {
	var rows []domain.ContractOverview
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Select(
			"contracts.id, contracts.external_id, contracts.property_name, contracts.status, contracts.active, "+
				"(SELECT COUNT(*) FROM contract_owners co WHERE co.contract_id = contracts.id) AS owner_count, "+
				"(SELECT COUNT(*) FROM contract_tenants ct WHERE ct.contract_id = contracts.id) AS tenant_count",
		).
		Where("contracts.license_id = ?", licenseID).
		Order("contracts.external_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list contracts")
	}
	if rows == nil {
		rows = []domain.ContractOverview{}
	}
	return rows, nil
}

func (r *ContractRepository) GetContract(ctx context.Context, licenseID string, externalID int64) (domain.Contract, error) {
	db := r.db.WithContext(ctx)

	var row models.Contract
	err := db.Where("license_id = ? AND external_id = ?", licenseID, externalID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Contract{}, domain.NotFoundError{Resource: "contract"}
	}
	if err != nil {
		return domain.Contract{}, errors.Wrap(err, "get contract")
	}
	contract := contractFromModel(row)

	var owners []models.Party
	err = db.Joins("JOIN contract_owners co ON co.party_id = parties.id").
		Where("co.contract_id = ?", row.ID).
		Order("parties.external_id ASC").
		Find(&owners).Error
	if err != nil {
		return domain.Contract{}, errors.Wrap(err, "get contract owners")
	}
	for _, p := range owners {
		contract.Owners = append(contract.Owners, partyFromModel(p))
	}

	var tenants []models.Party
	err = db.Joins("JOIN contract_tenants ct ON ct.party_id = parties.id").
		Where("ct.contract_id = ?", row.ID).
		Order("parties.external_id ASC").
		Find(&tenants).Error
	if err != nil {
		return domain.Contract{}, errors.Wrap(err, "get contract tenants")
	}
	for _, p := range tenants {
		contract.Tenants = append(contract.Tenants, partyFromModel(p))
	}

	return contract, nil
}
