package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a lease imported from the ERP. It is scoped to one license.
type Contract struct {
	ID                 uint       `json:"id"`
	LicenseID          string     `json:"licenseId"`
	ExternalID         int64      `json:"externalId"`
	PropertyName       string     `json:"propertyName"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	GuaranteeStart     *time.Time `json:"guaranteeStart,omitempty"`
	GuaranteeEnd       *time.Time `json:"guaranteeEnd,omitempty"`
	FireInsuranceStart *time.Time `json:"fireInsuranceStart,omitempty"`
	FireInsuranceEnd   *time.Time `json:"fireInsuranceEnd,omitempty"`
	LastAdjustment     *time.Time `json:"lastAdjustment,omitempty"`

	RentAmount           decimal.Decimal     `json:"rentAmount"`
	AdminFee             decimal.Decimal     `json:"adminFee"`
	LeaseFee             decimal.Decimal     `json:"leaseFee"`
	SaleValue            decimal.NullDecimal `json:"saleValue"`
	GuaranteeInstallment decimal.NullDecimal `json:"guaranteeInstallment"`
	FireInsuranceValue   decimal.NullDecimal `json:"fireInsuranceValue"`

	PropertyType       string `json:"propertyType"`
	ContractType       string `json:"contractType"`
	Status             string `json:"status"`
	GuaranteeType      string `json:"guaranteeType"`
	GuaranteedRentMode string `json:"guaranteedRentMode"`

	Active         bool `json:"active"`
	AutoRenew      bool `json:"autoRenew"`
	GuaranteedRent bool `json:"guaranteedRent"`

	SourceHash string `json:"sourceHash"`

	Owners  []Party `json:"owners"`
	Tenants []Party `json:"tenants"`
}

// ContractOverview is the listing shape used by the REST surface.
type ContractOverview struct {
	ID           uint   `json:"id"`
	ExternalID   int64  `json:"externalId"`
	PropertyName string `json:"propertyName"`
	Status       string `json:"status"`
	Active       bool   `json:"active"`
	OwnerCount   int64  `json:"ownerCount"`
	TenantCount  int64  `json:"tenantCount"`
}

// UpsertOutcome tells whether an upsert created the row and whether the
// upstream payload differed from the stored one.
type UpsertOutcome struct {
	Created bool
	Changed bool
}
