package resolve

import (
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

func rawRecord(section constants.SectionKind, fields map[string]string) entity.RawRecord {
	rec := entity.NewRawRecord(section)
	for k, v := range fields {
		rec.Set(k, v)
	}
	return rec
}

func TestResolveCode(t *testing.T) {
	tests := []struct {
		name string
		rec  entity.RawRecord
		doc  entity.DocumentContext
		want string
	}{
		{
			name: "natural code kept",
			rec:  rawRecord(constants.PendingDebit, map[string]string{entity.KeyRevenueCode: "3373-01", entity.KeyPeriod: "01/2024"}),
			want: "3373-01",
		},
		{
			name: "simples label",
			rec:  rawRecord(constants.PendingDebit, map[string]string{entity.KeyRevenueText: "SIMPLES NAC.", entity.KeyPeriod: "01/2025"}),
			want: constants.SimplesNacionalCode,
		},
		{
			name: "placeholder code treated as missing",
			rec:  rawRecord(constants.PendingDebit, map[string]string{entity.KeyRevenueCode: "SEM CÓDIGO", entity.KeyPeriod: "01/2024"}),
			want: "ITEM-01-2024",
		},
		{
			name: "period derived",
			rec:  rawRecord(constants.PendingDebit, map[string]string{entity.KeyPeriod: "1 TRI/2024"}),
			want: "ITEM-1-TRI-2024",
		},
		{
			name: "section prefix",
			rec:  rawRecord(constants.DebitSuspended, map[string]string{entity.KeyPeriod: "03/2023"}),
			want: "EXIG-SUSPENSA-03-2023",
		},
		{
			name: "cnpj derived from document",
			rec:  rawRecord(constants.PendingDebit, nil),
			doc:  entity.DocumentContext{CNPJ: "12.345.678/0001-90"},
			want: "ITEM-000190",
		},
		{
			name: "installment number is the code",
			rec:  rawRecord(constants.InstallmentSiefpar, map[string]string{entity.KeyInstallmentNumber: "123456"}),
			want: "123456",
		},
	}
	r := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve([]entity.RawRecord{tt.rec}, tt.doc)
			if code := got[0].Get(entity.KeyCode); code != tt.want {
				t.Errorf("code = %q, want %q", code, tt.want)
			}
		})
	}
}

func TestResolveLastResortCode(t *testing.T) {
	r := New(nil, WithClock(func() time.Time { return time.Unix(0, 42) }))
	got := r.Resolve([]entity.RawRecord{
		rawRecord(constants.InstallmentPending, nil),
		rawRecord(constants.InstallmentPending, nil),
	}, entity.DocumentContext{})
	first, second := got[0].Get(entity.KeyCode), got[1].Get(entity.KeyCode)
	if first == "" || second == "" {
		t.Fatal("empty code")
	}
	if first == second {
		t.Errorf("codes collide: %q", first)
	}
	if !strings.HasPrefix(first, "SISPAR-") {
		t.Errorf("code = %q", first)
	}
}

func TestResolveDefaults(t *testing.T) {
	r := New(nil)
	got := r.Resolve([]entity.RawRecord{
		rawRecord(constants.PendingDebit, map[string]string{entity.KeyRevenueCode: "3373-01"}),
		rawRecord(constants.PendingDebit, map[string]string{entity.KeyRevenueText: "SIMPLES NAC."}),
		rawRecord(constants.PaymentDocument, map[string]string{entity.KeyRevenueCode: "2089", entity.KeyDueDate: "30/04/2024"}),
	}, entity.DocumentContext{CNPJ: "12.345.678/0001-90"})

	if got[0].Get(entity.KeyPeriod) != "N/A" || got[0].Get(entity.KeyDueDate) != "N/A" || got[0].Get(entity.KeyStatus) != "DEVEDOR" {
		t.Errorf("debit defaults = %+v", got[0].Fields)
	}
	if got[0].Get(entity.KeyCNPJ) != "12.345.678/0001-90" {
		t.Errorf("cnpj not backfilled: %q", got[0].Get(entity.KeyCNPJ))
	}
	if got[1].Get(entity.KeyPeriod) != "SIMPLES NAC." || got[1].Get(entity.KeyDueDate) != "A DEFINIR" {
		t.Errorf("simples defaults = %+v", got[1].Fields)
	}
	if got[2].Get(entity.KeyPeriod) != "30/04/2024" {
		t.Errorf("payment period = %q", got[2].Get(entity.KeyPeriod))
	}
}

func TestResolveKeepsRecordLocalCNPJ(t *testing.T) {
	r := New(nil)
	rec := rawRecord(constants.PendingDebit, map[string]string{entity.KeyCNPJ: "98.765.432/0001-10"})
	got := r.Resolve([]entity.RawRecord{rec}, entity.DocumentContext{CNPJ: "12.345.678/0001-90"})
	if got[0].Get(entity.KeyCNPJ) != "98.765.432/0001-10" {
		t.Errorf("cnpj = %q", got[0].Get(entity.KeyCNPJ))
	}
	if got[0].Get(entity.KeyCode) != "ITEM-000110" {
		t.Errorf("code = %q", got[0].Get(entity.KeyCode))
	}
	if rec.Has(entity.KeyCode) {
		t.Error("input record mutated")
	}
}
