package usecase

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/normalize"
)

// The ERP names the person id differently depending on where the fragment
// is embedded. Order matters: the first usable key wins.
var partyIDKeys = []string{
	"id_pessoa_pes",
	"id_proprietario_pes",
	"id_pessoa",
	"id_cliente_pes",
	"id_pessoainquilino_pes",
}

var (
	partyNameKeys  = []string{"st_nome_pes", "st_nomeinquilino", "st_fantasia_pes"}
	partyTaxIDKeys = []string{"st_cnpj_pes", "st_cpf_pes"}
	partyPhoneKeys = []string{"st_celular_pes", "st_telefone_pes"}
)

// ExternalPartyID probes the candidate id keys of a party fragment.
func ExternalPartyID(fragment domain.RawRecord) (int64, bool) {
	for _, k := range partyIDKeys {
		if id, ok := normalize.ParseID(fragment[k]); ok {
			return id, true
		}
	}
	return 0, false
}

// IdentityResolver maps party fragments onto stored parties by external id.
type IdentityResolver struct{}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{}
}

// ResolveParty upserts the party described by fragment. Fragments without an
// external id yield domain.ErrIdentityUnresolved and are never written.
func (r *IdentityResolver) ResolveParty(ctx context.Context, tx SyncTx, fragment domain.RawRecord, role domain.PartyRole) (domain.Party, error) {
	ctx, span := tracer.Start(ctx, "Identity.Usecase.ResolveParty")
	defer span.End()

	externalID, ok := ExternalPartyID(fragment)
	if !ok {
		return domain.Party{}, domain.ErrIdentityUnresolved
	}
	span.SetAttributes(attribute.String("ExternalID", strconv.FormatInt(externalID, 10)))

	observed := observeParty(fragment, externalID, role)

	existing, err := tx.FindPartyForUpdate(ctx, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		party := withCreationDefaults(observed)
		var created bool
		created, err = tx.CreateParty(ctx, &party)
		if err != nil {
			span.RecordError(err)
			return domain.Party{}, err
		}
		if created {
			return party, nil
		}
		// lost the insert race; continue as an update
		existing, err = tx.FindPartyForUpdate(ctx, externalID)
	}
	if err != nil {
		span.RecordError(err)
		return domain.Party{}, err
	}

	updated, fields := mergeParty(existing, observed)
	if len(fields) == 0 {
		return existing, nil
	}

	if err := tx.UpdateParty(ctx, updated, fields); err != nil {
		span.RecordError(err)
		return domain.Party{}, err
	}
	return updated, nil
}

// observeParty reads what the fragment actually says, without defaults.
func observeParty(fragment domain.RawRecord, externalID int64, role domain.PartyRole) domain.Party {
	name, _ := normalize.FirstNonEmpty(fragment, partyNameKeys...)
	taxID, _ := normalize.FirstNonEmpty(fragment, partyTaxIDKeys...)
	phone, _ := normalize.FirstNonEmpty(fragment, partyPhoneKeys...)

	return domain.Party{
		ExternalID: externalID,
		TaxID:      normalize.DigitsOnly(taxID),
		NationalID: normalize.Stringify(fragment["st_rg_pes"]),
		Name:       name,
		Email:      normalize.Stringify(fragment["st_email_pes"]),
		Phone:      normalize.DigitsOnly(phone),
		Role:       role,
		Sex:        normalize.MapCode(normalize.Sexes, fragment["st_sexo_pes"], ""),
	}
}

func withCreationDefaults(p domain.Party) domain.Party {
	if p.Name == "" {
		p.Name = domain.UnnamedParty
	}
	if p.Email == "" {
		p.Email = normalize.PlaceholderEmail(p.Name, p.ExternalID)
	}
	if p.Sex == "" {
		p.Sex = domain.SexUndefined
	}
	return p
}

// mergeParty overwrites a stored field only with a non-empty, different
// value, and returns the names of the fields it touched. Creation defaults
// never replace stored data.
func mergeParty(stored, observed domain.Party) (domain.Party, []string) {
	if observed.Name == domain.UnnamedParty {
		observed.Name = ""
	}
	if normalize.IsPlaceholderEmail(observed.Email) {
		observed.Email = ""
	}
	if observed.Sex == domain.SexUndefined && stored.Sex != "" {
		observed.Sex = ""
	}

	var fields []string
	set := func(field string, dst *string, v string) {
		if v != "" && v != *dst {
			*dst = v
			fields = append(fields, field)
		}
	}

	merged := stored
	set("TaxID", &merged.TaxID, observed.TaxID)
	set("NationalID", &merged.NationalID, observed.NationalID)
	set("Name", &merged.Name, observed.Name)
	set("Email", &merged.Email, observed.Email)
	set("Phone", &merged.Phone, observed.Phone)
	set("Sex", &merged.Sex, observed.Sex)

	role := string(merged.Role)
	set("Role", &role, string(observed.Role))
	merged.Role = domain.PartyRole(role)

	return merged, fields
}
