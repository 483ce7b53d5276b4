package repository

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/infra/database/models"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var (
	_ usecase.SyncStore = (*SyncStore)(nil)
	_ usecase.SyncTx    = (*syncTx)(nil)
)

type SyncStore struct {
	db *gorm.DB
}

func NewSyncStore(db *gorm.DB) *SyncStore {
	return &SyncStore{db: db}
}

// Atomic runs fn in one database transaction. Every write fn makes through
// its SyncTx is committed together or not at all.
func (s *SyncStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.SyncTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &syncTx{db: tx})
	})
}

type syncTx struct {
	db *gorm.DB
}

func (t *syncTx) EnsureLicense(ctx context.Context, cred domain.Credential) error {
	license := models.License{ID: cred.LicenseID, Name: cred.LicenseName}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "m_date"}),
	}).Create(&license).Error
	return errors.Wrap(err, "ensure license")
}

func (t *syncTx) FindPartyForUpdate(ctx context.Context, externalID int64) (domain.Party, error) {
	q := t.db.WithContext(ctx)
	// sqlite has no row locks; its single writer already serializes runs
	if t.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var party models.Party
	err := q.Where("external_id = ?", externalID).Take(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Party{}, domain.NotFoundError{Resource: "party"}
	}
	if err != nil {
		return domain.Party{}, errors.Wrap(err, "find party")
	}
	return partyFromModel(party), nil
}

func (t *syncTx) CreateParty(ctx context.Context, party *domain.Party) (bool, error) {
	row := partyToModel(*party)
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "create party")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	party.ID = row.ID
	return true, nil
}

func (t *syncTx) UpdateParty(ctx context.Context, party domain.Party, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	row := partyToModel(party)
	err := t.db.WithContext(ctx).
		Model(&models.Party{ID: party.ID}).
		Select(append(slices.Clone(fields), "MDate")).
		Updates(&row).Error
	return errors.Wrap(err, "update party")
}

// UpsertContract overwrites every mapped column of the (license, external id)
// row. Changed compares payload fingerprints, not columns.
func (t *syncTx) UpsertContract(ctx context.Context, contract *domain.Contract) (domain.UpsertOutcome, error) {
	row := contractToModel(*contract)

	var existing models.Contract
	err := t.db.WithContext(ctx).
		Where("license_id = ? AND external_id = ?", contract.LicenseID, contract.ExternalID).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := t.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
			return domain.UpsertOutcome{}, errors.Wrap(err, "create contract")
		}
		contract.ID = row.ID
		return domain.UpsertOutcome{Created: true, Changed: true}, nil
	}
	if err != nil {
		return domain.UpsertOutcome{}, errors.Wrap(err, "find contract")
	}

	row.ID = existing.ID
	row.CDate = existing.CDate
	if err := t.db.WithContext(ctx).Omit(clause.Associations).Save(&row).Error; err != nil {
		return domain.UpsertOutcome{}, errors.Wrap(err, "save contract")
	}
	contract.ID = row.ID
	return domain.UpsertOutcome{Changed: existing.SourceHash != row.SourceHash}, nil
}

func (t *syncTx) ReplaceContractParties(ctx context.Context, contractID uint, role domain.PartyRole, partyIDs []uint) error {
	db := t.db.WithContext(ctx)

	switch role {
	case domain.PartyRoleOwner:
		if err := db.Where("contract_id = ?", contractID).Delete(&models.ContractOwner{}).Error; err != nil {
			return errors.Wrap(err, "clear contract owners")
		}
		if len(partyIDs) == 0 {
			return nil
		}
		rows := make([]models.ContractOwner, 0, len(partyIDs))
		for _, id := range partyIDs {
			rows = append(rows, models.ContractOwner{ContractID: contractID, PartyID: id})
		}
		return errors.Wrap(db.Omit(clause.Associations).Create(&rows).Error, "link contract owners")

	case domain.PartyRoleTenant:
		if err := db.Where("contract_id = ?", contractID).Delete(&models.ContractTenant{}).Error; err != nil {
			return errors.Wrap(err, "clear contract tenants")
		}
		if len(partyIDs) == 0 {
			return nil
		}
		rows := make([]models.ContractTenant, 0, len(partyIDs))
		for _, id := range partyIDs {
			rows = append(rows, models.ContractTenant{ContractID: contractID, PartyID: id})
		}
		return errors.Wrap(db.Omit(clause.Associations).Create(&rows).Error, "link contract tenants")

	default:
		return errors.Errorf("contract has no %s relation", role)
	}
}
