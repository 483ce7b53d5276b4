package models

// ContractOwner and ContractTenant are the two typed edges between a contract
// and its parties. Rows are replaced wholesale on every sync.
type ContractOwner struct {
	ContractID uint     `json:"contractID" gorm:"primaryKey"`
	Contract   Contract `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PartyID    uint     `json:"partyID" gorm:"primaryKey;index"`
	Party      Party    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

type ContractTenant struct {
	ContractID uint     `json:"contractID" gorm:"primaryKey"`
	Contract   Contract `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PartyID    uint     `json:"partyID" gorm:"primaryKey;index"`
	Party      Party    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}
