package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/imobcrm/erpsync/internal/domain"
)

// SyncTx is the storage view available inside one run transaction.
type SyncTx interface {
	EnsureLicense(ctx context.Context, cred domain.Credential) error
	// FindPartyForUpdate returns domain.ErrNotFound when no party has the id.
	FindPartyForUpdate(ctx context.Context, externalID int64) (domain.Party, error)
	// CreateParty reports created=false when a concurrent writer inserted the
	// same external id first; the party is left untouched in that case.
	CreateParty(ctx context.Context, party *domain.Party) (created bool, err error)
	// UpdateParty writes only the named fields of party.
	UpdateParty(ctx context.Context, party domain.Party, fields []string) error
	UpsertContract(ctx context.Context, contract *domain.Contract) (domain.UpsertOutcome, error)
	ReplaceContractParties(ctx context.Context, contractID uint, role domain.PartyRole, partyIDs []uint) error
}

// SyncStore runs fn inside a single transaction. A non-nil error from fn
// rolls everything back.
type SyncStore interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx SyncTx) error) error
}

// SyncRunRepository keeps the run history.
type SyncRunRepository interface {
	Save(ctx context.Context, summary domain.SyncSummary) error
	ListRecent(ctx context.Context, licenseID string, limit int) ([]domain.SyncSummary, error)
}

// ContractQueryRepository serves read-only listings.
type ContractQueryRepository interface {
	ListContracts(ctx context.Context, licenseID string, limit, offset int) ([]domain.ContractOverview, error)
	// GetContract loads one contract with its owners and tenants.
	GetContract(ctx context.Context, licenseID string, externalID int64) (domain.Contract, error)
}

// RecordSource yields every record of a resource for one credential.
type RecordSource interface {
	FetchAll(ctx context.Context, cred domain.Credential, resource string) iter.Seq2[domain.RawRecord, error]
}

// CredentialProvider supplies the tenant credential for a license.
type CredentialProvider interface {
	Credential(ctx context.Context, licenseID string) (domain.Credential, error)
}

// RunLock prevents two runs for the same license from overlapping.
type RunLock interface {
	Acquire(ctx context.Context, licenseID string, ttl time.Duration) (release func(), err error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishSync(ctx context.Context, event domain.SyncEvent) error
}

// RawArchive stores the fetched snapshot of a run.
type RawArchive interface {
	Put(ctx context.Context, licenseID, runID string, records []domain.RawRecord) error
}
