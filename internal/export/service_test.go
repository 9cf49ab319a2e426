package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

type memItems struct {
	byImport map[uuid.UUID][]entity.CanonicalItem
}

func (m *memItems) SaveAll(_ context.Context, id uuid.UUID, items []entity.CanonicalItem) error {
	m.byImport[id] = items
	return nil
}

func (m *memItems) ListByImport(_ context.Context, id uuid.UUID) ([]entity.CanonicalItem, error) {
	items, ok := m.byImport[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return items, nil
}

func sampleItems() []entity.CanonicalItem {
	return []entity.CanonicalItem{
		{
			Code: "3373-01", TaxType: constants.TaxTypeDebit, Section: constants.PendingDebit,
			StartPeriod: "01/2024", EndPeriod: "01/2024", DueDate: "31/01/2024",
			OriginalValue: decimal.NewFromInt(1000), CurrentBalance: decimal.NewFromInt(1000),
			Status: "DEVEDOR", CNPJ: "12.345.678/0001-95",
		},
		{
			Code: "123456789", TaxType: constants.TaxTypeSiefpar, Section: constants.InstallmentSiefpar,
			StartPeriod: "PARCELAMENTO", EndPeriod: "PARCELAMENTO", DueDate: "SUSPENSO",
			OriginalValue: decimal.NewFromInt(200), CurrentBalance: decimal.NewFromInt(200),
			Status: "ATIVO",
		},
	}
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, cell, err)
	}
	return v
}

func TestWorkbook(t *testing.T) {
	out, err := Workbook(sampleItems(), nil)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != ItemsSheet || got[1] != SummarySheet {
		t.Fatalf("sheets = %v", got)
	}

	rows, err := f.GetRows(ItemsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("item rows = %d, want 3", len(rows))
	}

	tests := []struct {
		sheet, cell, want string
	}{
		{ItemsSheet, "A1", "Código"},
		{ItemsSheet, "A2", "3373-01"},
		{ItemsSheet, "B2", "DEBITO"},
		{ItemsSheet, "F2", "31/01/2024"},
		{ItemsSheet, "H2", "1000"},
		{ItemsSheet, "M2", "12.345.678/0001-95"},
		{ItemsSheet, "D3", "PARCELAMENTO"},
		{SummarySheet, "A2", "DEBITO"},
		{SummarySheet, "D2", "SIM"},
		{SummarySheet, "A3", "PARCELAMENTO_SIEFPAR"},
		{SummarySheet, "D3", "NÃO"},
		{SummarySheet, "B5", "2"},
		{SummarySheet, "C5", "1200"},
		{SummarySheet, "B6", "1"},
		{SummarySheet, "C6", "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet+"!"+tt.cell, func(t *testing.T) {
			if got := raw(t, f, tt.sheet, tt.cell); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWorkbookFlags(t *testing.T) {
	out, err := Workbook(sampleItems(), aggregate.Flags{constants.TaxTypeSiefpar: true})
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := raw(t, f, SummarySheet, "C6"); got != "1200" {
		t.Errorf("included total = %q, want 1200", got)
	}
}

func TestExportImportXLSX(t *testing.T) {
	id := uuid.New()
	repo := &memItems{byImport: map[uuid.UUID][]entity.CanonicalItem{id: sampleItems()}}
	svc := NewService(repo, nil)

	out, err := svc.ExportImportXLSX(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("ExportImportXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := raw(t, f, ItemsSheet, "A3"); got != "123456789" {
		t.Errorf("A3 = %q", got)
	}

	_, err = svc.ExportImportXLSX(context.Background(), uuid.New(), nil)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	out, err := Workbook(nil, nil)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := raw(t, f, SummarySheet, "A3"); got != "TOTAL" {
		t.Errorf("A3 = %q, want TOTAL", got)
	}
}
