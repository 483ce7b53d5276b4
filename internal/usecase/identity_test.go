package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/imobcrm/erpsync/internal/domain"
)

func newTestTx() (*memStore, *memTx) {
	s := newMemStore()
	return s, &memTx{store: s, state: s.state}
}

func TestExternalPartyIDProbeOrder(t *testing.T) {
	cases := []struct {
		name     string
		fragment domain.RawRecord
		want     int64
		ok       bool
	}{
		{"primary key", domain.RawRecord{"id_pessoa_pes": "12", "id_proprietario_pes": "99"}, 12, true},
		{"zero falls through", domain.RawRecord{"id_pessoa_pes": "0", "id_proprietario_pes": "99"}, 99, true},
		{"blank falls through", domain.RawRecord{"id_pessoa_pes": "", "id_cliente_pes": 7}, 7, true},
		{"tenant key", domain.RawRecord{"id_pessoainquilino_pes": "31"}, 31, true},
		{"none", domain.RawRecord{"st_nome_pes": "Ana"}, 0, false},
		{"garbage", domain.RawRecord{"id_pessoa": "abc"}, 0, false},
	}
	for _, c := range cases {
		got, ok := ExternalPartyID(c.fragment)
		if got != c.want || ok != c.ok {
			t.Fatalf("%s: expected (%d,%v) got (%d,%v)", c.name, c.want, c.ok, got, ok)
		}
	}
}

func TestResolvePartyWithoutIDIsNeverWritten(t *testing.T) {
	s, tx := newTestTx()
	r := NewIdentityResolver()

	_, err := r.ResolveParty(context.Background(), tx, domain.RawRecord{"st_nome_pes": "Sem Id"}, domain.PartyRoleOwner)
	if !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("expected ErrIdentityUnresolved got %v", err)
	}
	if len(s.state.parties) != 0 {
		t.Fatalf("expected no parties, got %d", len(s.state.parties))
	}
}

func TestResolvePartyCreatesWithDefaults(t *testing.T) {
	s, tx := newTestTx()
	r := NewIdentityResolver()

	p, err := r.ResolveParty(context.Background(), tx, domain.RawRecord{"id_pessoa_pes": "44"}, domain.PartyRoleTenant)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("expected a storage id")
	}
	if p.Name != domain.UnnamedParty {
		t.Fatalf("expected placeholder name got %q", p.Name)
	}
	if p.Email != "noemail-sem-nome-44@invalid.local" {
		t.Fatalf("unexpected placeholder email %q", p.Email)
	}
	if p.Sex != domain.SexUndefined {
		t.Fatalf("expected undefined sex got %q", p.Sex)
	}
	if p.Role != domain.PartyRoleTenant {
		t.Fatalf("expected tenant role got %q", p.Role)
	}
	if _, ok := s.partyByExternalID(44); !ok {
		t.Fatalf("expected party 44 stored")
	}
}

func TestResolvePartyNormalizesFields(t *testing.T) {
	_, tx := newTestTx()
	r := NewIdentityResolver()

	p, err := r.ResolveParty(context.Background(), tx, domain.RawRecord{
		"id_pessoa_pes":  "5",
		"st_nome_pes":    "  Maria Souza ",
		"st_cpf_pes":     "123.456.789-09",
		"st_celular_pes": "(11) 98888-7777",
		"st_email_pes":   "maria@example.com",
		"st_sexo_pes":    "2",
	}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.Name != "Maria Souza" || p.TaxID != "12345678909" || p.Phone != "11988887777" {
		t.Fatalf("unexpected normalization: %+v", p)
	}
	if p.Email != "maria@example.com" || p.Sex != domain.SexFemale {
		t.Fatalf("unexpected email/sex: %+v", p)
	}
}

func TestResolvePartyPartialUpdateKeepsStoredValues(t *testing.T) {
	s, tx := newTestTx()
	r := NewIdentityResolver()
	ctx := context.Background()

	_, err := r.ResolveParty(ctx, tx, domain.RawRecord{
		"id_pessoa_pes": "9",
		"st_nome_pes":   "Carlos",
		"st_email_pes":  "carlos@example.com",
		"st_cpf_pes":    "11122233344",
		"st_sexo_pes":   "1",
	}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	// a tenant fragment carrying only the id and a new phone
	p, err := r.ResolveParty(ctx, tx, domain.RawRecord{
		"id_pessoainquilino_pes": "9",
		"st_telefone_pes":        "1133334444",
	}, domain.PartyRoleTenant)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if p.Name != "Carlos" || p.Email != "carlos@example.com" || p.TaxID != "11122233344" || p.Sex != domain.SexMale {
		t.Fatalf("stored values were blanked: %+v", p)
	}
	if p.Phone != "1133334444" {
		t.Fatalf("expected phone update got %q", p.Phone)
	}
	if p.Role != domain.PartyRoleTenant {
		t.Fatalf("expected role to follow last context, got %q", p.Role)
	}
	if len(s.state.parties) != 1 {
		t.Fatalf("expected a single party, got %d", len(s.state.parties))
	}
}

func TestResolvePartyUnchangedSkipsWrite(t *testing.T) {
	s, tx := newTestTx()
	r := NewIdentityResolver()
	ctx := context.Background()
	fragment := domain.RawRecord{"id_pessoa_pes": "3", "st_nome_pes": "Joana"}

	if _, err := r.ResolveParty(ctx, tx, fragment, domain.PartyRoleOwner); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, err := r.ResolveParty(ctx, tx, fragment, domain.PartyRoleOwner); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.state.partyUpdates != 0 {
		t.Fatalf("expected no updates, got %d", s.state.partyUpdates)
	}
}

func TestResolvePartyRealEmailReplacesPlaceholder(t *testing.T) {
	_, tx := newTestTx()
	r := NewIdentityResolver()
	ctx := context.Background()

	first, err := r.ResolveParty(ctx, tx, domain.RawRecord{"id_pessoa_pes": "8", "st_nome_pes": "Rui"}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if first.Email != "noemail-rui-8@invalid.local" {
		t.Fatalf("unexpected placeholder %q", first.Email)
	}

	second, err := r.ResolveParty(ctx, tx, domain.RawRecord{"id_pessoa_pes": "8", "st_email_pes": "rui@example.com"}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if second.Email != "rui@example.com" {
		t.Fatalf("expected real email got %q", second.Email)
	}

	third, err := r.ResolveParty(ctx, tx, domain.RawRecord{"id_pessoa_pes": "8"}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if third.Email != "rui@example.com" || third.Name != "Rui" {
		t.Fatalf("defaults overwrote stored values: %+v", third)
	}
}

func TestResolvePartyLostInsertRace(t *testing.T) {
	s, tx := newTestTx()
	tx.raceOnCreate = &domain.Party{ExternalID: 21, Name: "Vencedor", Email: "v@example.com", Role: domain.PartyRoleOwner}
	r := NewIdentityResolver()

	p, err := r.ResolveParty(context.Background(), tx, domain.RawRecord{"id_pessoa_pes": "21", "st_celular_pes": "11999990000"}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.Name != "Vencedor" || p.Email != "v@example.com" {
		t.Fatalf("expected the concurrent row to be kept, got %+v", p)
	}
	if p.Phone != "11999990000" {
		t.Fatalf("expected phone merged into existing row, got %q", p.Phone)
	}
	if len(s.state.parties) != 1 {
		t.Fatalf("expected one party, got %d", len(s.state.parties))
	}
}

func TestResolvePartyUndefinedSexKeepsStoredValue(t *testing.T) {
	_, tx := newTestTx()
	r := NewIdentityResolver()
	ctx := context.Background()

	if _, err := r.ResolveParty(ctx, tx, domain.RawRecord{"id_pessoa_pes": "60", "st_sexo_pes": "1"}, domain.PartyRoleOwner); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	p, err := r.ResolveParty(ctx, tx, domain.RawRecord{"id_pessoa_pes": "60", "st_sexo_pes": "3", "st_nome_pes": domain.UnnamedParty}, domain.PartyRoleOwner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.Sex != domain.SexMale {
		t.Fatalf("expected stored sex kept, got %q", p.Sex)
	}
	if p.Name != domain.UnnamedParty {
		t.Fatalf("unexpected name %q", p.Name)
	}
}
