package credential

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/pkg/errors"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.CredentialProvider = (*SecretsManager)(nil)

// SecretsManagerAPI is the subset of the AWS client the provider calls.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager reads one secret per license, named prefix+licenseID,
// holding a JSON document with the license token.
type SecretsManager struct {
	client SecretsManagerAPI
	prefix string
}

type secretPayload struct {
	LicenseName string `json:"licenseName"`
	AccessToken string `json:"accessToken"`
	BaseURL     string `json:"baseUrl"`
}

func NewSecretsManager(ctx context.Context, region, prefix string) (*SecretsManager, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	return NewSecretsManagerWithClient(secretsmanager.NewFromConfig(awsCfg), prefix), nil
}

func NewSecretsManagerWithClient(client SecretsManagerAPI, prefix string) *SecretsManager {
	return &SecretsManager{client: client, prefix: prefix}
}

func (s *SecretsManager) Credential(ctx context.Context, licenseID string) (domain.Credential, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.prefix + licenseID),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return domain.Credential{}, domain.NotFoundError{Resource: "license"}
		}
		return domain.Credential{}, errors.Wrapf(err, "get secret for license %s", licenseID)
	}
	if out.SecretString == nil {
		return domain.Credential{}, errors.Errorf("secret for license %s has no string value", licenseID)
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return domain.Credential{}, errors.Wrapf(err, "decode secret for license %s", licenseID)
	}
	if payload.AccessToken == "" {
		return domain.Credential{}, errors.Errorf("secret for license %s has no access token", licenseID)
	}

	return domain.Credential{
		LicenseID:   licenseID,
		LicenseName: payload.LicenseName,
		AccessToken: payload.AccessToken,
		BaseURL:     payload.BaseURL,
	}, nil
}
