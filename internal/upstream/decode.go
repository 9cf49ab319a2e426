package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// textKeys maps service row keys onto RawRecord fields.
var textKeys = map[string]string{
	"receita":           entity.KeyRevenueText,
	"periodo_apuracao":  entity.KeyPeriod,
	"data_vencimento":   entity.KeyDueDate,
	"vencimento":        entity.KeyDueDate,
	"situacao":          entity.KeyStatus,
	"cnpj":              entity.KeyCNPJ,
	"cno":               entity.KeyCNO,
	"parcelamento":      entity.KeyInstallmentNumber,
	"modalidade":        entity.KeyModality,
	"inscricao":         entity.KeyRegistrationNumber,
	"inscrito_em":       entity.KeyRegisteredOn,
	"ajuizado_em":       entity.KeyLitigatedOn,
	"processo":          entity.KeyProcessNumber,
	"tipo_devedor":      entity.KeyDebtorType,
	"devedor_principal": entity.KeyPrincipalDebtor,
	"conta":             entity.KeyAccountNumber,
	"descricao":         entity.KeyDescription,
	"localizacao":       entity.KeyLocation,
	"tipo":              entity.KeyKind,
	"codigo":            entity.KeyRevenueCode,
	"denominacao":       entity.KeyDenomination,
}

var amountKeys = map[string]string{
	"valor_original":            entity.AmountOriginalValue,
	"saldo_devedor":             entity.AmountCurrentBalance,
	"multa":                     entity.AmountFine,
	"juros":                     entity.AmountInterest,
	"saldo_devedor_consolidado": entity.AmountConsolidatedBalance,
	"valor_suspenso":            entity.AmountSuspendedValue,
	"principal":                 entity.AmountPrincipal,
	"total":                     entity.AmountTotal,
}

var rePlainDecimal = regexp.MustCompile(`^-?\d+(?:\.\d{1,2})?$`)

// Decoder validates service answers and turns rows into raw records.
// It is safe for concurrent use.
type Decoder struct {
	logger    *slog.Logger
	norm      *normalize.Normalizer
	taxStatus *jsonschema.Schema
	payment   *jsonschema.Schema
}

func NewDecoder(logger *slog.Logger) (*Decoder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ts, err := compileSchema("tax_status.json", TaxStatusSchema())
	if err != nil {
		return nil, err
	}
	pay, err := compileSchema("payment.json", PaymentSchema())
	if err != nil {
		return nil, err
	}
	return &Decoder{logger: logger, norm: normalize.New(logger), taxStatus: ts, payment: pay}, nil
}

// DecodeTaxStatus turns a tax-status answer into a Document whose Rows
// hold every section the service tabulated.
func (d *Decoder) DecodeTaxStatus(raw []byte) (entity.Document, error) {
	obj, err := d.validate(d.taxStatus, raw)
	if err != nil {
		return entity.Document{}, err
	}
	doc := entity.Document{Family: constants.FamilyTaxStatus, Rows: map[constants.SectionKind][]entity.RawRecord{}}
	if s, ok := obj["cnpj"].(string); ok {
		doc.CNPJ = strings.TrimSpace(s)
	}
	if pages, ok := obj["pages"].([]any); ok {
		for _, p := range pages {
			if s, ok := p.(string); ok {
				doc.Pages = append(doc.Pages, s)
			}
		}
	}
	for key, v := range obj {
		kind, ok := constants.ParseSectionKind(key)
		if !ok || kind == constants.PaymentDocument {
			continue
		}
		rows, _ := v.([]any)
		if rows == nil {
			continue
		}
		doc.Rows[kind] = d.records(kind, rows)
	}
	return doc, nil
}

// DecodePayment turns a DARF answer into a Document. An "error" member is
// a hard failure.
func (d *Decoder) DecodePayment(raw []byte) (entity.Document, error) {
	obj, err := d.validate(d.payment, raw)
	if err != nil {
		return entity.Document{}, err
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return entity.Document{}, fmt.Errorf("%w: %s", common.ErrUpstream, msg)
	}
	rows, _ := obj["data"].([]any)
	return entity.Document{
		Family: constants.FamilyPaymentDocument,
		Rows: map[constants.SectionKind][]entity.RawRecord{
			constants.PaymentDocument: d.records(constants.PaymentDocument, rows),
		},
	}, nil
}

func (d *Decoder) validate(schema *jsonschema.Schema, raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", common.ErrUpstream, err)
	}
	if err := schema.Validate(v); err != nil {
		d.logger.Warn("upstream.response.invalid", "error", err)
		return nil, fmt.Errorf("%w: response does not match schema: %v", common.ErrUpstream, err)
	}
	obj, _ := v.(map[string]any)
	return obj, nil
}

func (d *Decoder) records(kind constants.SectionKind, rows []any) []entity.RawRecord {
	out := make([]entity.RawRecord, 0, len(rows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, d.record(kind, row))
	}
	return out
}

// record converts one service row. Unknown keys are ignored.
func (d *Decoder) record(kind constants.SectionKind, row map[string]any) entity.RawRecord {
	rec := entity.NewRawRecord(kind)
	for key, v := range row {
		if field, ok := textKeys[key]; ok {
			rec.Set(field, cellText(v))
			continue
		}
		if amount, ok := amountKeys[key]; ok {
			if v == nil {
				continue
			}
			rec.SetAmount(amount, d.cellAmount(v))
		}
	}
	if rec.Has(entity.KeyRevenueText) {
		if cl, ok := classify.ParseCode(rec.Get(entity.KeyRevenueText)); ok {
			rec.Set(entity.KeyRevenueCode, cl.Code)
			rec.Set(entity.KeyTaxName, cl.TaxName)
		}
	}
	switch kind {
	case constants.RegistrationPending, constants.FiscalProcess, constants.DebitSicob:
		// "situacao" is the registration or process situation here, not a debt status.
		if rec.Has(entity.KeyStatus) {
			rec.Set(entity.KeySituation, rec.Get(entity.KeyStatus))
			delete(rec.Fields, entity.KeyStatus)
		}
	}
	return rec
}

func cellText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return ""
}

func (d *Decoder) cellAmount(v any) decimal.Decimal {
	switch t := v.(type) {
	case json.Number:
		if dec, err := decimal.NewFromString(t.String()); err == nil {
			return dec
		}
	case string:
		s := strings.TrimSpace(t)
		if rePlainDecimal.MatchString(s) {
			return decimal.RequireFromString(s)
		}
		return d.norm.Number(s)
	}
	return decimal.Zero
}
