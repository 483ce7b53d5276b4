package domain

// PartyRole is the role a party was last observed in.
type PartyRole string

const (
	PartyRoleOwner  PartyRole = "OWNER"
	PartyRoleTenant PartyRole = "TENANT"
)

const (
	SexMale      = "M"
	SexFemale    = "F"
	SexUndefined = "I"
)

// UnnamedParty is stored when the upstream sends no usable name.
const UnnamedParty = "Sem nome"

// Party is a person or organization known to the ERP, keyed by ExternalID.
type Party struct {
	ID         uint      `json:"id"`
	ExternalID int64     `json:"externalId"`
	TaxID      string    `json:"taxId"`
	NationalID string    `json:"nationalId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       PartyRole `json:"role"`
	Sex        string    `json:"sex"`
}
