package credential

import (
	"context"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.CredentialProvider = (*Static)(nil)

// Static serves credentials listed in the configuration file.
type Static struct {
	licenses map[string]domain.Credential
}

func NewStatic(creds []domain.Credential) *Static {
	licenses := make(map[string]domain.Credential, len(creds))
	for _, c := range creds {
		licenses[c.LicenseID] = c
	}
	return &Static{licenses: licenses}
}

func (s *Static) Credential(ctx context.Context, licenseID string) (domain.Credential, error) {
	c, ok := s.licenses[licenseID]
	if !ok {
		return domain.Credential{}, domain.NotFoundError{Resource: "license"}
	}
	return c, nil
}
