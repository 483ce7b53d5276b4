package usecase

import (
	"context"
	"errors"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/imobcrm/erpsync/internal/domain"
)

// --- in-memory store ---

type contractKey struct {
	license string
	id      int64
}

type memState struct {
	licenses       map[string]domain.Credential
	parties        map[int64]domain.Party
	contracts      map[contractKey]domain.Contract
	owners         map[uint][]uint
	tenants        map[uint][]uint
	nextPartyID    uint
	nextContractID uint
	partyUpdates   int
}

func newMemState() *memState {
	return &memState{
		licenses:  map[string]domain.Credential{},
		parties:   map[int64]domain.Party{},
		contracts: map[contractKey]domain.Contract{},
		owners:    map[uint][]uint{},
		tenants:   map[uint][]uint{},
	}
}

func (s *memState) clone() *memState {
	c := *s
	c.licenses = maps.Clone(s.licenses)
	c.parties = maps.Clone(s.parties)
	c.contracts = maps.Clone(s.contracts)
	c.owners = maps.Clone(s.owners)
	c.tenants = maps.Clone(s.tenants)
	return &c
}

type memStore struct {
	state *memState
	// failUpserts makes the n-th UpsertContract call (1-based) fail.
	failUpserts int
	upserts     int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx SyncTx) error) error {
	work := m.state.clone()
	if err := fn(ctx, &memTx{store: m, state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) partyByExternalID(id int64) (domain.Party, bool) {
	p, ok := m.state.parties[id]
	return p, ok
}

func (m *memStore) contract(license string, id int64) (domain.Contract, bool) {
	c, ok := m.state.contracts[contractKey{license, id}]
	return c, ok
}

func (m *memStore) externalIDs(partyIDs []uint) []int64 {
	var out []int64
	for _, pid := range partyIDs {
		for _, p := range m.state.parties {
			if p.ID == pid {
				out = append(out, p.ExternalID)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (m *memStore) ownersOf(license string, id int64) []int64 {
	c, _ := m.contract(license, id)
	return m.externalIDs(m.state.owners[c.ID])
}

func (m *memStore) tenantsOf(license string, id int64) []int64 {
	c, _ := m.contract(license, id)
	return m.externalIDs(m.state.tenants[c.ID])
}

type memTx struct {
	store *memStore
	state *memState
	// raceOnCreate simulates another writer inserting the party first.
	raceOnCreate *domain.Party
}

func (t *memTx) EnsureLicense(ctx context.Context, cred domain.Credential) error {
	t.state.licenses[cred.LicenseID] = cred
	return nil
}

func (t *memTx) FindPartyForUpdate(ctx context.Context, externalID int64) (domain.Party, error) {
	p, ok := t.state.parties[externalID]
	if !ok {
		return domain.Party{}, domain.NotFoundError{Resource: "party"}
	}
	return p, nil
}

func (t *memTx) CreateParty(ctx context.Context, party *domain.Party) (bool, error) {
	if t.raceOnCreate != nil {
		winner := *t.raceOnCreate
		t.raceOnCreate = nil
		t.state.nextPartyID++
		winner.ID = t.state.nextPartyID
		t.state.parties[winner.ExternalID] = winner
	}
	if _, ok := t.state.parties[party.ExternalID]; ok {
		return false, nil
	}
	t.state.nextPartyID++
	party.ID = t.state.nextPartyID
	t.state.parties[party.ExternalID] = *party
	return true, nil
}

func (t *memTx) UpdateParty(ctx context.Context, party domain.Party, fields []string) error {
	if len(fields) == 0 {
		return errors.New("empty update")
	}
	t.state.partyUpdates++
	t.state.parties[party.ExternalID] = party
	return nil
}

func (t *memTx) UpsertContract(ctx context.Context, c *domain.Contract) (domain.UpsertOutcome, error) {
	t.store.upserts++
	if t.store.failUpserts > 0 && t.store.upserts == t.store.failUpserts {
		return domain.UpsertOutcome{}, errors.New("disk full")
	}
	key := contractKey{c.LicenseID, c.ExternalID}
	stored, ok := t.state.contracts[key]
	if !ok {
		t.state.nextContractID++
		c.ID = t.state.nextContractID
		t.state.contracts[key] = *c
		return domain.UpsertOutcome{Created: true, Changed: true}, nil
	}
	c.ID = stored.ID
	t.state.contracts[key] = *c
	return domain.UpsertOutcome{Changed: stored.SourceHash != c.SourceHash}, nil
}

func (t *memTx) ReplaceContractParties(ctx context.Context, contractID uint, role domain.PartyRole, partyIDs []uint) error {
	switch role {
	case domain.PartyRoleOwner:
		t.state.owners[contractID] = slices.Clone(partyIDs)
	case domain.PartyRoleTenant:
		t.state.tenants[contractID] = slices.Clone(partyIDs)
	default:
		return errors.New("unknown role")
	}
	return nil
}

// --- collaborators ---

type fakeSource struct {
	records []domain.RawRecord
	err     error
	calls   int
}

func (f *fakeSource) FetchAll(ctx context.Context, cred domain.Credential, resource string) iter.Seq2[domain.RawRecord, error] {
	f.calls++
	return func(yield func(domain.RawRecord, error) bool) {
		for _, r := range f.records {
			if !yield(r, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

type fakeCredentials struct {
	creds     map[string]domain.Credential
	forgotten []string
}

func (f *fakeCredentials) Forget(licenseID string) {
	f.forgotten = append(f.forgotten, licenseID)
}

func (f *fakeCredentials) Credential(ctx context.Context, licenseID string) (domain.Credential, error) {
	c, ok := f.creds[licenseID]
	if !ok {
		return domain.Credential{}, domain.NotFoundError{Resource: "license"}
	}
	return c, nil
}

type fakeHistory struct {
	saved []domain.SyncSummary
}

func (f *fakeHistory) Save(ctx context.Context, s domain.SyncSummary) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeHistory) ListRecent(ctx context.Context, licenseID string, limit int) ([]domain.SyncSummary, error) {
	return f.saved, nil
}

type fakeEvents struct {
	events []domain.SyncEvent
}

func (f *fakeEvents) PublishSync(ctx context.Context, e domain.SyncEvent) error {
	f.events = append(f.events, e)
	return nil
}

type fakeLock struct {
	held     map[string]bool
	released int
}

func (f *fakeLock) Acquire(ctx context.Context, licenseID string, ttl time.Duration) (func(), error) {
	if f.held[licenseID] {
		return nil, domain.ErrSyncInProgress
	}
	f.held[licenseID] = true
	return func() {
		delete(f.held, licenseID)
		f.released++
	}, nil
}

type fakeArchive struct {
	puts int
}

func (f *fakeArchive) Put(ctx context.Context, licenseID, runID string, records []domain.RawRecord) error {
	f.puts++
	return errors.New("bucket unavailable")
}

// --- payload helpers ---

func owner(id any, name string) map[string]any {
	return map[string]any{"id_pessoa_pes": id, "st_nome_pes": name}
}

func tenant(id any, name string) map[string]any {
	return map[string]any{"id_pessoainquilino_pes": id, "st_nomeinquilino": name}
}

func contractPayload(id any, owners []any, tenants []any) domain.RawRecord {
	return domain.RawRecord{
		"id_contrato_con":             id,
		"st_imovel_imo":               "Edifício Aurora 101",
		"dt_inicio_con":               "01/15/2024",
		"dt_fim_con":                  "01/14/2026",
		"vl_aluguel_con":              "2500.00",
		"tx_adm_con":                  "8",
		"st_tipo_imo":                 "3",
		"id_tipo_con":                 "1",
		"fl_status_con":               "1",
		"fl_ativo_con":                "1",
		"proprietarios_beneficiarios": owners,
		"inquilinos":                  tenants,
	}
}
