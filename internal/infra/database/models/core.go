package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// License is the credential scope contracts belong to. Only the id and the
// display name are kept; tokens never reach the database.
type License struct {
	ID    string    `json:"id" gorm:"primaryKey;type:text"`
	Name  string    `json:"name" gorm:"type:text"`
	CDate time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Party struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ExternalID int64     `json:"externalID" gorm:"not null;uniqueIndex:uniq_party_external"`
	TaxID      string    `json:"taxID" gorm:"type:text;index"`
	NationalID string    `json:"nationalID" gorm:"type:text"`
	Name       string    `json:"name" gorm:"type:text;not null"`
	Email      string    `json:"email" gorm:"type:text"`
	Phone      string    `json:"phone" gorm:"type:text"`
	Role       string    `json:"role" gorm:"type:text;index"`
	Sex        string    `json:"sex" gorm:"type:text"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Contract struct {
	ID           uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	LicenseID    string  `json:"licenseID" gorm:"type:text;not null;uniqueIndex:uniq_contract_scope"`
	License      License `json:"-" gorm:"foreignKey:LicenseID;references:ID;constraint:OnDelete:CASCADE;"`
	ExternalID   int64   `json:"externalID" gorm:"not null;uniqueIndex:uniq_contract_scope"`
	PropertyName string  `json:"propertyName" gorm:"type:text"`

	StartDate          *time.Time `json:"startDate" gorm:"type:date"`
	EndDate            *time.Time `json:"endDate" gorm:"type:date"`
	GuaranteeStart     *time.Time `json:"guaranteeStart" gorm:"type:date"`
	GuaranteeEnd       *time.Time `json:"guaranteeEnd" gorm:"type:date"`
	FireInsuranceStart *time.Time `json:"fireInsuranceStart" gorm:"type:date"`
	FireInsuranceEnd   *time.Time `json:"fireInsuranceEnd" gorm:"type:date"`
	LastAdjustment     *time.Time `json:"lastAdjustment" gorm:"type:date"`

	RentAmount           decimal.Decimal     `json:"rentAmount" gorm:"type:numeric(18,4);not null;default:0"`
	AdminFee             decimal.Decimal     `json:"adminFee" gorm:"type:numeric(18,4);not null;default:0"`
	LeaseFee             decimal.Decimal     `json:"leaseFee" gorm:"type:numeric(18,4);not null;default:0"`
	SaleValue            decimal.NullDecimal `json:"saleValue" gorm:"type:numeric(18,4)"`
	GuaranteeInstallment decimal.NullDecimal `json:"guaranteeInstallment" gorm:"type:numeric(18,4)"`
	FireInsuranceValue   decimal.NullDecimal `json:"fireInsuranceValue" gorm:"type:numeric(18,4)"`

	PropertyType       string `json:"propertyType" gorm:"type:text"`
	ContractType       string `json:"contractType" gorm:"type:text"`
	Status             string `json:"status" gorm:"type:text;index"`
	GuaranteeType      string `json:"guaranteeType" gorm:"type:text"`
	GuaranteedRentMode string `json:"guaranteedRentMode" gorm:"type:text"`

	Active         bool `json:"active" gorm:"type:boolean;not null"`
	AutoRenew      bool `json:"autoRenew" gorm:"type:boolean;not null"`
	GuaranteedRent bool `json:"guaranteedRent" gorm:"type:boolean;not null"`

	SourceHash string    `json:"sourceHash" gorm:"type:text"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
