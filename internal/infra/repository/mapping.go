package repository

import (
	"encoding/json"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/infra/database/models"
)

func partyToModel(p domain.Party) models.Party {
	return models.Party{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		TaxID:      p.TaxID,
		NationalID: p.NationalID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Role:       string(p.Role),
		Sex:        p.Sex,
	}
}

func partyFromModel(m models.Party) domain.Party {
	return domain.Party{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		TaxID:      m.TaxID,
		NationalID: m.NationalID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       domain.PartyRole(m.Role),
		Sex:        m.Sex,
	}
}

func contractToModel(c domain.Contract) models.Contract {
	return models.Contract{
		ID:                   c.ID,
		LicenseID:            c.LicenseID,
		ExternalID:           c.ExternalID,
		PropertyName:         c.PropertyName,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		GuaranteeStart:       c.GuaranteeStart,
		GuaranteeEnd:         c.GuaranteeEnd,
		FireInsuranceStart:   c.FireInsuranceStart,
		FireInsuranceEnd:     c.FireInsuranceEnd,
		LastAdjustment:       c.LastAdjustment,
		RentAmount:           c.RentAmount,
		AdminFee:             c.AdminFee,
		LeaseFee:             c.LeaseFee,
		SaleValue:            c.SaleValue,
		GuaranteeInstallment: c.GuaranteeInstallment,
		FireInsuranceValue:   c.FireInsuranceValue,
		PropertyType:         c.PropertyType,
		ContractType:         c.ContractType,
		Status:               c.Status,
		GuaranteeType:        c.GuaranteeType,
		GuaranteedRentMode:   c.GuaranteedRentMode,
		Active:               c.Active,
		AutoRenew:            c.AutoRenew,
		GuaranteedRent:       c.GuaranteedRent,
		SourceHash:           c.SourceHash,
	}
}

func contractFromModel(m models.Contract) domain.Contract {
	return domain.Contract{
		ID:                   m.ID,
		LicenseID:            m.LicenseID,
		ExternalID:           m.ExternalID,
		PropertyName:         m.PropertyName,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		GuaranteeStart:       m.GuaranteeStart,
		GuaranteeEnd:         m.GuaranteeEnd,
		FireInsuranceStart:   m.FireInsuranceStart,
		FireInsuranceEnd:     m.FireInsuranceEnd,
		LastAdjustment:       m.LastAdjustment,
		RentAmount:           m.RentAmount,
		AdminFee:             m.AdminFee,
		LeaseFee:             m.LeaseFee,
		SaleValue:            m.SaleValue,
		GuaranteeInstallment: m.GuaranteeInstallment,
		FireInsuranceValue:   m.FireInsuranceValue,
		PropertyType:         m.PropertyType,
		ContractType:         m.ContractType,
		Status:               m.Status,
		GuaranteeType:        m.GuaranteeType,
		GuaranteedRentMode:   m.GuaranteedRentMode,
		Active:               m.Active,
		AutoRenew:            m.AutoRenew,
		GuaranteedRent:       m.GuaranteedRent,
		SourceHash:           m.SourceHash,
		Owners:               []domain.Party{},
		Tenants:              []domain.Party{},
	}
}

func runToModel(s domain.SyncSummary) (models.SyncRun, error) {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	encoded, err := json.Marshal(errs)
	if err != nil {
		return models.SyncRun{}, err
	}
	return models.SyncRun{
		ID:         s.RunID,
		LicenseID:  s.LicenseID,
		Status:     string(s.Status),
		Fetched:    s.Fetched,
		Imported:   s.Imported,
		Created:    s.Created,
		Updated:    s.Updated,
		Unchanged:  s.Unchanged,
		Skipped:    s.Skipped,
		Warnings:   s.Warnings,
		Errors:     string(encoded),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}, nil
}

func runFromModel(m models.SyncRun) domain.SyncSummary {
	errs := []string{}
	if m.Errors != "" {
		// a corrupt column degrades to an empty list
		_ = json.Unmarshal([]byte(m.Errors), &errs)
	}
	return domain.SyncSummary{
		RunID:      m.ID,
		LicenseID:  m.LicenseID,
		Status:     domain.SyncStatus(m.Status),
		Fetched:    m.Fetched,
		Imported:   m.Imported,
		Created:    m.Created,
		Updated:    m.Updated,
		Unchanged:  m.Unchanged,
		Skipped:    m.Skipped,
		Warnings:   m.Warnings,
		Errors:     errs,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}
