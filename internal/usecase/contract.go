package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/normalize"
)

const (
	ownersKey  = "proprietarios_beneficiarios"
	tenantsKey = "inquilinos"
)

// ReconcileResult is what one contract payload turned into.
type ReconcileResult struct {
	Contract domain.Contract
	Outcome  domain.UpsertOutcome
	Issues   []domain.FieldIssue
	// Dropped counts party fragments excluded for lack of an external id.
	Dropped int
}

// ContractReconciler writes one upstream contract and its party relations.
type ContractReconciler struct {
	identity *IdentityResolver
}

func NewContractReconciler(identity *IdentityResolver) *ContractReconciler {
	return &ContractReconciler{identity: identity}
}

// Reconcile upserts the contract keyed by (scope license, id_contrato_con),
// overwriting every mapped field, then replaces its owner and tenant sets
// with the parties resolvable from this payload.
func (r *ContractReconciler) Reconcile(ctx context.Context, tx SyncTx, raw domain.RawRecord, scope domain.Credential) (ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "Contract.Usecase.Reconcile")
	defer span.End()

	contract, issues, err := BuildContract(raw, scope.LicenseID)
	if err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}
	span.SetAttributes(attribute.String("ExternalContractID", strconv.FormatInt(contract.ExternalID, 10)))

	for _, issue := range issues {
		slog.WarnContext(
			ctx, "unparsable value replaced by default",
			slog.String("license", scope.LicenseID),
			slog.Int64("contract", issue.ContractID),
			slog.String("field", issue.Field),
			slog.String("raw", issue.Raw),
			slog.String("module", "reconciler"),
		)
	}

	outcome, err := tx.UpsertContract(ctx, &contract)
	if err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}

	result := ReconcileResult{Outcome: outcome, Issues: issues}

	contract.Owners, err = r.resolveAll(ctx, tx, raw.Records(ownersKey), domain.PartyRoleOwner, &result.Dropped)
	if err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}
	contract.Tenants, err = r.resolveAll(ctx, tx, raw.Records(tenantsKey), domain.PartyRoleTenant, &result.Dropped)
	if err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}

	if err := tx.ReplaceContractParties(ctx, contract.ID, domain.PartyRoleOwner, partyIDs(contract.Owners)); err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}
	if err := tx.ReplaceContractParties(ctx, contract.ID, domain.PartyRoleTenant, partyIDs(contract.Tenants)); err != nil {
		span.RecordError(err)
		return ReconcileResult{}, err
	}

	result.Contract = contract
	return result, nil
}

func (r *ContractReconciler) resolveAll(ctx context.Context, tx SyncTx, fragments []domain.RawRecord, role domain.PartyRole, dropped *int) ([]domain.Party, error) {
	parties := make([]domain.Party, 0, len(fragments))
	seen := make(map[uint]struct{}, len(fragments))

	for _, fragment := range fragments {
		party, err := r.identity.ResolveParty(ctx, tx, fragment, role)
		if errors.Is(err, domain.ErrIdentityUnresolved) {
			*dropped++
			slog.DebugContext(
				ctx, "party fragment without external id dropped",
				slog.String("role", string(role)),
				slog.String("module", "reconciler"),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, dup := seen[party.ID]; dup {
			continue
		}
		seen[party.ID] = struct{}{}
		parties = append(parties, party)
	}
	return parties, nil
}

func partyIDs(parties []domain.Party) []uint {
	ids := make([]uint, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID)
	}
	return ids
}

// BuildContract maps a raw contract payload onto the domain shape. Only a
// missing or unparsable id_contrato_con is an error.
func BuildContract(raw domain.RawRecord, licenseID string) (domain.Contract, []domain.FieldIssue, error) {
	externalID, ok := normalize.ParseID(raw["id_contrato_con"])
	if !ok {
		return domain.Contract{}, nil, &domain.MissingContractIDError{Raw: normalize.Stringify(raw["id_contrato_con"])}
	}

	f := &fieldReader{raw: raw, contractID: externalID}
	propertyName, _ := normalize.FirstNonEmpty(raw, "st_imovel_imo", "st_endereco_imo")
	guaranteedRent, _ := normalize.FirstNonEmpty(raw, "nm_repassegarantido_con", "fl_tiporepassegarantido_con")

	c := domain.Contract{
		LicenseID:    licenseID,
		ExternalID:   externalID,
		PropertyName: propertyName,

		StartDate:          f.date("dt_inicio_con"),
		EndDate:            f.date("dt_fim_con"),
		GuaranteeStart:     f.date("dt_garantiainicio_con"),
		GuaranteeEnd:       f.date("dt_garantiafim_con"),
		FireInsuranceStart: f.date("dt_seguroincendioinicio_con"),
		FireInsuranceEnd:   f.date("dt_seguroincendiofim_con"),
		LastAdjustment:     f.date("dt_ultimoreajuste_con"),

		RentAmount:           f.amount("vl_aluguel_con"),
		AdminFee:             f.amount("tx_adm_con"),
		LeaseFee:             f.amount("tx_locacao_con"),
		SaleValue:            f.optionalAmount("vl_venda_imo"),
		GuaranteeInstallment: f.optionalAmount("vl_garantiaparcela_con"),
		FireInsuranceValue:   f.optionalAmount("vl_seguroincendio_con"),

		PropertyType:       f.code(normalize.PropertyTypes, "st_tipo_imo"),
		ContractType:       f.code(normalize.ContractTypes, "id_tipo_con"),
		Status:             f.code(normalize.Statuses, "fl_status_con"),
		GuaranteeType:      f.code(normalize.Guarantees, "fl_garantia_con"),
		GuaranteedRentMode: f.code(normalize.GuaranteedRentModes, "fl_tiporepassegarantido_con"),

		Active:         normalize.ParseBool(raw["fl_ativo_con"]),
		AutoRenew:      normalize.ParseBool(raw["fl_renovacaoautomatica_con"]),
		GuaranteedRent: normalize.ParseBool(guaranteedRent),

		SourceHash: SourceHash(raw),
	}

	return c, f.issues, nil
}

// SourceHash fingerprints a payload. encoding/json sorts map keys, so equal
// payloads hash equally regardless of upstream key order.
func SourceHash(raw domain.RawRecord) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

// fieldReader wraps the normalizer and records values that were present but
// unusable.
type fieldReader struct {
	raw        domain.RawRecord
	contractID int64
	issues     []domain.FieldIssue
}

func (f *fieldReader) flag(key string) {
	s := normalize.Stringify(f.raw[key])
	if s == "" {
		return
	}
	f.issues = append(f.issues, domain.FieldIssue{ContractID: f.contractID, Field: key, Raw: s})
}

func (f *fieldReader) date(key string) *time.Time {
	d := normalize.ParseDate(f.raw[key])
	if d == nil {
		f.flag(key)
	}
	return d
}

func (f *fieldReader) optionalAmount(key string) decimal.NullDecimal {
	d := normalize.ParseDecimal(f.raw[key], decimal.NullDecimal{})
	if !d.Valid {
		f.flag(key)
	}
	return d
}

func (f *fieldReader) amount(key string) decimal.Decimal {
	if !normalize.ParseDecimal(f.raw[key], decimal.NullDecimal{}).Valid {
		f.flag(key)
	}
	return normalize.DecimalOr(f.raw[key], decimal.Zero)
}

func (f *fieldReader) code(table map[string]string, key string) string {
	if _, ok := table[normalize.Stringify(f.raw[key])]; !ok {
		f.flag(key)
	}
	return normalize.MapCode(table, f.raw[key], "")
}
