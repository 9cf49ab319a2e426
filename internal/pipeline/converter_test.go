package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/dedup"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/upstream"
)

func newTestConverter(t *testing.T, opts ...ConverterOption) *Converter {
	t.Helper()
	c, err := NewConverter(nil, opts...)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return c
}

func page(lines ...string) string {
	return strings.Join(lines, "\n")
}

var debitLines = []string{
	"3373-01 - IRPJ", "01/2024", "31/01/2024",
	"175.704,97", "175.704,97", "0,00", "0,00", "175.704,97", "DEVEDOR",
}

func TestConvertEndToEnd(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages: []string{page(append([]string{
			"CNPJ: 12.345.678/0001-90",
			"Pendência - Débito (SIEF)",
		}, debitLines...)...)},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.Code != "3373-01" || got.TaxType != constants.TaxTypeDebit {
		t.Errorf("code/tax_type = %q/%q", got.Code, got.TaxType)
	}
	if got.StartPeriod != "01/2024" || got.DueDate != "31/01/2024" || got.Status != "DEVEDOR" {
		t.Errorf("period/due/status = %q/%q/%q", got.StartPeriod, got.DueDate, got.Status)
	}
	if !got.OriginalValue.Equal(decimal.RequireFromString("175704.97")) {
		t.Errorf("original_value = %s", got.OriginalValue)
	}
	if got.CNPJ != "12.345.678/0001-90" {
		t.Errorf("cnpj = %q", got.CNPJ)
	}
}

func TestConvertStopsAtUnrelatedHeading(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages: []string{page(
			"Pendência - Débito (SIEF)",
			"3373-01 - IRPJ", "01/2024", "31/01/2024", "100,00", "100,00", "DEVEDOR",
			"Parcelamento com Exigibilidade Suspensa",
			"2372-01 - CSLL", "02/2024", "29/02/2024", "50,00", "50,00", "DEVEDOR",
		)},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 || items[0].Code != "3373-01" {
		t.Fatalf("items = %+v", items)
	}
}

func TestConvertDeduplicates(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages: []string{page(
			"Pendência - Débito (SIEF)",
			"3373-01 - IRPJ", "01/2024", "31/01/2024", "100,00", "100,00", "DEVEDOR",
			"3373-01 - IRPJ", "01/2024", "31/01/2024", "200,00", "200,00", "DEVEDOR",
		)},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !items[0].CurrentBalance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("current_balance = %s, want 200", items[0].CurrentBalance)
	}

	items, err = newTestConverter(t, WithDedupKey(dedup.ByCodeSectionAndPeriod)).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("same period still collapses: items = %d", len(items))
	}
}

func TestConvertRowsReplaceTextSection(t *testing.T) {
	row := entity.NewRawRecord(constants.PendingDebit)
	row.Set(entity.KeyRevenueCode, "1082-01")
	row.Set(entity.KeyRevenueText, "1082-01 - CP-SEGURADOS")
	row.Set(entity.KeyPeriod, "03/2024")
	row.SetAmount(entity.AmountCurrentBalance, decimal.NewFromInt(42))

	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages:  []string{page(append([]string{"Pendência - Débito (SIEF)"}, debitLines...)...)},
		Rows:   map[constants.SectionKind][]entity.RawRecord{constants.PendingDebit: {row}},
		CNPJ:   "11.222.333/0001-44",
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 || items[0].Code != "1082-01" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].DueDate != constants.SentinelNotAvailable || items[0].CNPJ != "11.222.333/0001-44" {
		t.Errorf("due/cnpj = %q/%q", items[0].DueDate, items[0].CNPJ)
	}
}

func TestConvertSimplesRow(t *testing.T) {
	row := entity.NewRawRecord(constants.PendingDebit)
	row.Set(entity.KeyRevenueText, "SIMPLES NAC.")
	row.SetAmount(entity.AmountCurrentBalance, decimal.NewFromInt(10))
	doc := entity.Document{Rows: map[constants.SectionKind][]entity.RawRecord{constants.PendingDebit: {row}}}

	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	got := items[0]
	if got.TaxType != constants.TaxTypeSimplesNacional || got.Code != constants.SimplesNacionalCode {
		t.Errorf("tax_type/code = %q/%q", got.TaxType, got.Code)
	}
	if got.StartPeriod != constants.SentinelSimplesPeriod || got.DueDate != constants.SentinelToBeDefined {
		t.Errorf("period/due = %q/%q", got.StartPeriod, got.DueDate)
	}
}

func TestConvertSimplesNameBelowCode(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages: []string{page(
			"Pendência - Débito (SIEF)",
			"1507-01", "SIMPLES NAC.", "01/2024", "20/02/2024",
			"500,00", "500,00", "0,00", "0,00", "500,00", "DEVEDOR",
		)},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if got := items[0]; got.TaxType != constants.TaxTypeSimplesNacional || got.Code != "1507-01" {
		t.Errorf("tax_type/code = %q/%q, want SIMPLES_NACIONAL/1507-01", got.TaxType, got.Code)
	}
}

func TestConvertPaymentDocument(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyPaymentDocument,
		Pages: []string{page(
			"Composição do Documento de Arrecadação",
			"Código Denominação Principal Multa Juros Total",
			"2089",
			"IRPJ - LUCRO PRESUMIDO",
			"1.000,00", "20,00", "10,00", "1.030,00",
			"IRPJ 1º TRIMESTRE",
			"PA 1 TRI/2024 Vencimento 30/04/2024",
			"Total do Documento 1.030,00",
		)},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.TaxType != constants.TaxTypeDARF || got.Code != "2089" {
		t.Errorf("tax_type/code = %q/%q", got.TaxType, got.Code)
	}
	if got.StartPeriod != "2024-03-31" || got.DueDate != "2024-04-30" || got.Status != "PENDING" {
		t.Errorf("period/due/status = %q/%q/%q", got.StartPeriod, got.DueDate, got.Status)
	}
	if !got.ConsolidatedBalance.Equal(decimal.NewFromInt(1030)) || !got.OriginalValue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("amounts = %s/%s", got.OriginalValue, got.ConsolidatedBalance)
	}
}

func TestConvertErrors(t *testing.T) {
	c := newTestConverter(t)
	_, err := c.Convert(context.Background(), entity.Document{Family: constants.FamilyTaxStatus})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty document: err = %v, want ErrInvalidInput", err)
	}

	_, err = c.Convert(context.Background(), entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages:  []string{"nothing useful here\njust prose"},
	})
	if !errors.Is(err, common.ErrNothingExtracted) {
		t.Errorf("no records: err = %v, want ErrNothingExtracted", err)
	}
}

func TestConvertEmptyExtractionAnswer(t *testing.T) {
	dec, err := upstream.NewDecoder(nil)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	tests := []struct {
		name   string
		family constants.DocumentFamily
		raw    string
	}{
		{"tax status with empty sections", constants.FamilyTaxStatus, `{"pendenciasDebito": [], "parcelamentosSiefpar": []}`},
		{"tax status without sections", constants.FamilyTaxStatus, `{}`},
		{"payment document without rows", constants.FamilyPaymentDocument, `{"data": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc entity.Document
			var err error
			if tt.family == constants.FamilyPaymentDocument {
				doc, err = dec.DecodePayment([]byte(tt.raw))
			} else {
				doc, err = dec.DecodeTaxStatus([]byte(tt.raw))
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			_, err = newTestConverter(t).Convert(context.Background(), doc)
			if !errors.Is(err, common.ErrNothingExtracted) {
				t.Errorf("err = %v, want ErrNothingExtracted", err)
			}
			if errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("err = %v, must not be ErrInvalidInput", err)
			}
		})
	}
}

func TestConvertEmptyRowsKeepTextSection(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages:  []string{page(append([]string{"Pendência - Débito (SIEF)"}, debitLines...)...)},
		Rows:   map[constants.SectionKind][]entity.RawRecord{constants.PendingDebit: {}},
	}
	items, err := newTestConverter(t).Convert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(items) != 1 || items[0].Code != "3373-01" {
		t.Fatalf("items = %+v, want the text-built 3373-01 debit", items)
	}
}

func TestConvertSequentialMatchesParallel(t *testing.T) {
	doc := entity.Document{
		Family: constants.FamilyTaxStatus,
		Pages: []string{page(
			"Pendência - Débito (SIEF)",
			"3373-01 - IRPJ", "01/2024", "31/01/2024", "100,00", "100,00", "DEVEDOR",
			"Parcelamento com Exigibilidade Suspensa (SIEFPAR)",
			"Parcelamento: 123456789", "Valor Suspenso: 12.345,67", "PARCELAMENTO SIMPLIFICADO",
			"Pendência - Processo Fiscal",
			"10980.720123/2020-11",
			"Situação: EM ANALISE",
		)},
	}
	codes := func(opts ...ConverterOption) []string {
		items, err := newTestConverter(t, opts...).Convert(context.Background(), doc)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Code + "/" + string(it.TaxType)
		}
		return out
	}
	seq := codes(WithParallelSections(false))
	par := codes(WithParallelSections(true))
	want := []string{
		"3373-01/DEBITO",
		"123456789/PARCELAMENTO_SIEFPAR",
		"10980.720123/2020-11/PROCESSO_FISCAL",
	}
	if strings.Join(seq, ",") != strings.Join(want, ",") {
		t.Errorf("sequential = %v, want %v", seq, want)
	}
	if strings.Join(par, ",") != strings.Join(seq, ",") {
		t.Errorf("parallel = %v, sequential = %v", par, seq)
	}
}
