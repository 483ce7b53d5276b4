package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imobcrm/erpsync/internal/domain"
)

var tracer = otel.Tracer("usecase")

const (
	// DefaultResource is the ERP endpoint holding lease contracts.
	DefaultResource = "contratos"
	defaultLockTTL  = 30 * time.Minute
)

type SyncRunnerOption func(*SyncRunner)

func WithRunLock(lock RunLock, ttl time.Duration) SyncRunnerOption {
	return func(s *SyncRunner) {
		s.lock = lock
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithRunHistory(history SyncRunRepository) SyncRunnerOption {
	return func(s *SyncRunner) { s.history = history }
}

func WithEventPublisher(events EventPublisher) SyncRunnerOption {
	return func(s *SyncRunner) { s.events = events }
}

func WithRawArchive(archive RawArchive) SyncRunnerOption {
	return func(s *SyncRunner) { s.archive = archive }
}

func WithResource(resource string) SyncRunnerOption {
	return func(s *SyncRunner) {
		if resource != "" {
			s.resource = resource
		}
	}
}

func WithClock(now func() time.Time) SyncRunnerOption {
	return func(s *SyncRunner) { s.now = now }
}

// SyncRunner performs one full-refresh import per call.
type SyncRunner struct {
	source      RecordSource
	store       SyncStore
	reconciler  *ContractReconciler
	credentials CredentialProvider

	lock     RunLock
	lockTTL  time.Duration
	history  SyncRunRepository
	events   EventPublisher
	archive  RawArchive
	resource string
	now      func() time.Time
}

func NewSyncRunner(
	source RecordSource,
	store SyncStore,
	reconciler *ContractReconciler,
	credentials CredentialProvider,
	opts ...SyncRunnerOption,
) *SyncRunner {
	s := &SyncRunner{
		source:      source,
		store:       store,
		reconciler:  reconciler,
		credentials: credentials,
		lockTTL:     defaultLockTTL,
		resource:    DefaultResource,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunLicense resolves the license credential and runs a sync with it.
func (s *SyncRunner) RunLicense(ctx context.Context, licenseID string) (domain.SyncSummary, error) {
	if s.credentials == nil {
		return domain.SyncSummary{LicenseID: licenseID}, errors.New("credential provider not configured")
	}
	cred, err := s.credentials.Credential(ctx, licenseID)
	if err != nil {
		return domain.SyncSummary{LicenseID: licenseID}, err
	}

	summary, err := s.Run(ctx, cred)
	if rejectedCredential(err) {
		if f, ok := s.credentials.(credentialForgetter); ok {
			f.Forget(licenseID)
			slog.InfoContext(
				ctx, "cached credential dropped after upstream rejection",
				slog.String("license", licenseID),
				slog.String("module", "sync"),
			)
		}
	}
	return summary, err
}

// credentialForgetter is implemented by caching providers.
type credentialForgetter interface {
	Forget(licenseID string)
}

func rejectedCredential(err error) bool {
	var upstream *domain.UpstreamFetchError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.StatusCode == http.StatusUnauthorized || upstream.StatusCode == http.StatusForbidden
}

// Run fetches every upstream record for cred and reconciles them in one
// transaction. Either the whole batch becomes visible or nothing does.
func (s *SyncRunner) Run(ctx context.Context, cred domain.Credential) (domain.SyncSummary, error) {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.Run")
	defer span.End()
	span.SetAttributes(attribute.String("License", cred.LicenseID))

	summary := domain.SyncSummary{
		RunID:     uuid.NewString(),
		LicenseID: cred.LicenseID,
		StartedAt: s.now(),
		Errors:    []string{},
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, cred.LicenseID, s.lockTTL)
		if err != nil {
			span.RecordError(err)
			return summary, err
		}
		defer release()
	}

	records, err := s.fetch(ctx, cred)
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, summary, err)
	}
	summary.Fetched = len(records)

	if s.archive != nil {
		if err := s.archive.Put(ctx, cred.LicenseID, summary.RunID, records); err != nil {
			slog.WarnContext(
				ctx, "failed to archive raw snapshot",
				slog.String("license", cred.LicenseID),
				slog.String("run", summary.RunID),
				slog.String("error", err.Error()),
				slog.String("module", "sync"),
			)
		}
	}

	var work domain.SyncSummary
	err = s.store.Atomic(ctx, func(ctx context.Context, tx SyncTx) error {
		work = summary
		work.Errors = []string{}

		if err := tx.EnsureLicense(ctx, cred); err != nil {
			return err
		}

		for i, rec := range records {
			res, err := s.reconciler.Reconcile(ctx, tx, rec, cred)

			var missing *domain.MissingContractIDError
			if errors.As(err, &missing) {
				work.Skipped++
				work.Errors = append(work.Errors, fmt.Sprintf("record %d: %v", i, err))
				slog.WarnContext(
					ctx, "contract record skipped",
					slog.String("license", cred.LicenseID),
					slog.Int("index", i),
					slog.String("error", err.Error()),
					slog.String("module", "sync"),
				)
				continue
			}
			if err != nil {
				return err
			}

			work.Imported++
			switch {
			case res.Outcome.Created:
				work.Created++
			case res.Outcome.Changed:
				work.Updated++
			default:
				work.Unchanged++
			}
			work.Warnings += len(res.Issues) + res.Dropped
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, summary, &domain.StorageCommitError{LicenseID: cred.LicenseID, Err: err})
	}

	summary = work
	summary.Status = domain.SyncStatusSucceeded
	summary.FinishedAt = s.now()

	slog.InfoContext(
		ctx, "sync finished",
		slog.String("license", cred.LicenseID),
		slog.String("run", summary.RunID),
		slog.Int("imported", summary.Imported),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("warnings", summary.Warnings),
		slog.String("module", "sync"),
	)

	s.record(ctx, summary)
	s.publish(ctx, domain.SyncEvent{Type: domain.SyncEventFinished, Summary: summary})

	return summary, nil
}

func (s *SyncRunner) fetch(ctx context.Context, cred domain.Credential) ([]domain.RawRecord, error) {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.Fetch")
	defer span.End()

	var records []domain.RawRecord
	for rec, err := range s.source.FetchAll(ctx, cred, s.resource) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	span.SetAttributes(attribute.Int("Records", len(records)))
	return records, nil
}

func (s *SyncRunner) fail(ctx context.Context, summary domain.SyncSummary, cause error) (domain.SyncSummary, error) {
	summary.Status = domain.SyncStatusFailed
	summary.FinishedAt = s.now()
	summary.Errors = append(summary.Errors, cause.Error())

	slog.ErrorContext(
		ctx, "sync failed",
		slog.String("license", summary.LicenseID),
		slog.String("run", summary.RunID),
		slog.String("error", cause.Error()),
		slog.String("module", "sync"),
	)

	s.record(ctx, summary)
	s.publish(ctx, domain.SyncEvent{Type: domain.SyncEventFailed, Summary: summary, Reason: cause.Error()})

	return summary, cause
}

// record and publish run after the transaction; their failures are logged
// and do not change the outcome of the run.
func (s *SyncRunner) record(ctx context.Context, summary domain.SyncSummary) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(ctx, summary); err != nil {
		slog.WarnContext(
			ctx, "failed to save sync run",
			slog.String("run", summary.RunID),
			slog.String("error", err.Error()),
			slog.String("module", "sync"),
		)
	}
}

func (s *SyncRunner) publish(ctx context.Context, event domain.SyncEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish sync event",
			slog.String("run", event.Summary.RunID),
			slog.String("error", err.Error()),
			slog.String("module", "sync"),
		)
	}
}
