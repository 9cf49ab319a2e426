package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestMapper() *Mapper {
	return New(nil, WithClock(func() time.Time { return fixedNow }))
}

func rec(section constants.SectionKind, fields map[string]string, amounts map[string]string) entity.RawRecord {
	r := entity.NewRawRecord(section)
	for k, v := range fields {
		r.Set(k, v)
	}
	for k, v := range amounts {
		r.SetAmount(k, decimal.RequireFromString(v))
	}
	return r
}

func TestMapPendingDebit(t *testing.T) {
	in := rec(constants.PendingDebit, map[string]string{
		entity.KeyCode:        "3373-01",
		entity.KeyRevenueCode: "3373-01",
		entity.KeyRevenueText: "3373-01 - IRPJ",
		entity.KeyTaxName:     "IRPJ",
		entity.KeyPeriod:      "01/2024",
		entity.KeyDueDate:     "31/01/2024",
		entity.KeyStatus:      "DEVEDOR",
		entity.KeyCNPJ:        "12.345.678/0001-90",
	}, map[string]string{
		entity.AmountOriginalValue:       "175704.97",
		entity.AmountCurrentBalance:      "175704.97",
		entity.AmountFine:                "0",
		entity.AmountInterest:            "0",
		entity.AmountConsolidatedBalance: "175704.97",
	})

	items := newTestMapper().Map([]entity.RawRecord{in})
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.Code != "3373-01" || got.TaxType != constants.TaxTypeDebit {
		t.Errorf("code/tax_type = %q/%q", got.Code, got.TaxType)
	}
	if got.StartPeriod != "01/2024" || got.EndPeriod != "01/2024" || got.DueDate != "31/01/2024" {
		t.Errorf("dates = %q %q %q", got.StartPeriod, got.EndPeriod, got.DueDate)
	}
	if !got.OriginalValue.Equal(decimal.RequireFromString("175704.97")) {
		t.Errorf("original_value = %s", got.OriginalValue)
	}
	if got.Status != "DEVEDOR" || got.CNPJ != "12.345.678/0001-90" {
		t.Errorf("status/cnpj = %q/%q", got.Status, got.CNPJ)
	}
	if got.ID == uuid.Nil || !got.CreatedAt.Equal(fixedNow) || !got.UpdatedAt.Equal(fixedNow) {
		t.Errorf("id/timestamps not stamped: %+v", got)
	}
	if got.Detail(entity.KeyTaxName) != "IRPJ" {
		t.Errorf("details = %v", got.Details)
	}
}

func TestTaxTypeOfSimplesOverride(t *testing.T) {
	tests := []struct {
		name    string
		section constants.SectionKind
		revenue string
		want    constants.TaxType
	}{
		{"simples debit", constants.PendingDebit, "SIMPLES NAC.", constants.TaxTypeSimplesNacional},
		{"lowercase", constants.PendingDebit, "Simples Nacional", constants.TaxTypeSimplesNacional},
		{"plain debit", constants.PendingDebit, "3373-01 - IRPJ", constants.TaxTypeDebit},
		{"suspended stays", constants.DebitSuspended, "SIMPLES NAC.", constants.TaxTypeDebitSuspended},
		{"darf", constants.PaymentDocument, "SIMPLES", constants.TaxTypeDARF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rec(tt.section, map[string]string{entity.KeyRevenueText: tt.revenue}, nil)
			if got := TaxTypeOf(r); got != tt.want {
				t.Errorf("TaxTypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapSentinelsAndZeroFill(t *testing.T) {
	tests := []struct {
		name                     string
		in                       entity.RawRecord
		start, end, due, status  string
		original, current, total string
	}{
		{
			name: "siefpar",
			in: rec(constants.InstallmentSiefpar,
				map[string]string{entity.KeyCode: "123456", entity.KeyModality: "PARC. SIMPLIFICADO"},
				map[string]string{entity.AmountSuspendedValue: "1500.50"}),
			start: "PARCELAMENTO", end: "PARCELAMENTO", due: "SUSPENSO", status: "PARC. SIMPLIFICADO",
			original: "1500.5", current: "1500.5", total: "1500.5",
		},
		{
			name: "sida with dates",
			in: rec(constants.RegistrationPending,
				map[string]string{entity.KeyCode: "80 2 23 000001-01", entity.KeyRegisteredOn: "15/03/2023"}, nil),
			start: "2023-03-15", end: "2023-03-15", due: "NAO AJUIZADO", status: "ATIVA",
			original: "0", current: "0", total: "0",
		},
		{
			name:  "sispar",
			in:    rec(constants.InstallmentPending, map[string]string{entity.KeyCode: "9999", entity.KeyDescription: "EM DIA"}, nil),
			start: "PARCELAMENTO", end: "PARCELAMENTO", due: "NEGOCIADO", status: "EM DIA",
			original: "0", current: "0", total: "0",
		},
		{
			name:  "process",
			in:    rec(constants.FiscalProcess, map[string]string{entity.KeyCode: "10980.720123/2020-11"}, nil),
			start: "PROCESSO", end: "PROCESSO", due: "N/A", status: "ATIVO",
			original: "0", current: "0", total: "0",
		},
		{
			name: "darf",
			in: rec(constants.PaymentDocument,
				map[string]string{entity.KeyCode: "2089", entity.KeyPeriod: "1º TRIM/2024", entity.KeyDueDate: "30/04/2024"},
				map[string]string{entity.AmountPrincipal: "100", entity.AmountTotal: "120"}),
			start: "2024-03-31", end: "2024-03-31", due: "2024-04-30", status: "PENDING",
			original: "100", current: "120", total: "120",
		},
	}
	m := newTestMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map([]entity.RawRecord{tt.in})[0]
			if got.StartPeriod != tt.start || got.EndPeriod != tt.end || got.DueDate != tt.due {
				t.Errorf("dates = %q %q %q, want %q %q %q", got.StartPeriod, got.EndPeriod, got.DueDate, tt.start, tt.end, tt.due)
			}
			if got.Status != tt.status {
				t.Errorf("status = %q, want %q", got.Status, tt.status)
			}
			if !got.OriginalValue.Equal(decimal.RequireFromString(tt.original)) {
				t.Errorf("original = %s, want %s", got.OriginalValue, tt.original)
			}
			if !got.CurrentBalance.Equal(decimal.RequireFromString(tt.current)) {
				t.Errorf("current = %s, want %s", got.CurrentBalance, tt.current)
			}
			if !got.Value().Equal(decimal.RequireFromString(tt.total)) {
				t.Errorf("value = %s, want %s", got.Value(), tt.total)
			}
			if got.Code == "" || got.TaxType == "" {
				t.Errorf("code/tax_type empty: %+v", got)
			}
		})
	}
}

func TestMapWithoutResolvedCode(t *testing.T) {
	id := uuid.MustParse("0b1f6a6e-8e0a-4b8f-9d3c-2a4f1c0e7b11")
	m := New(nil, WithIDGenerator(func() uuid.UUID { return id }))
	got := m.Map([]entity.RawRecord{entity.NewRawRecord(constants.DebitSicob)})[0]
	if got.Code != "SICOB-0b1f6a6e" {
		t.Errorf("code = %q", got.Code)
	}
	if got.TaxType != constants.TaxTypeSicob || got.ID != id {
		t.Errorf("tax_type/id = %q/%s", got.TaxType, got.ID)
	}
}
