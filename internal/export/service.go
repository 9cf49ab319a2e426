// Package export writes canonical items and their per-type summary to
// an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
)

const (
	ItemsSheet   = "Itens"
	SummarySheet = "Resumo"
)

var itemHeaders = []string{
	"Código",
	"Tipo",
	"Seção",
	"Período Inicial",
	"Período Final",
	"Vencimento",
	"Valor Original",
	"Saldo Devedor",
	"Multa",
	"Juros",
	"Saldo Consolidado",
	"Situação",
	"CNPJ",
	"CNO",
}

var summaryHeaders = []string{"Tipo", "Quantidade", "Total", "Incluído"}

// Service produces XLSX bytes for stored imports.
type Service struct {
	items  repository.OrderItemRepository
	logger *slog.Logger
}

func NewService(items repository.OrderItemRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{items: items, logger: logger}
}

// ExportImportXLSX loads the items of one import and renders them. A nil
// flags map uses the default inclusion table.
func (s *Service) ExportImportXLSX(ctx context.Context, importID uuid.UUID, flags aggregate.Flags) ([]byte, error) {
	items, err := s.items.ListByImport(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	out, err := Workbook(items, flags)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok", "import_id", importID.String(), "rows", len(items), "bytes", len(out))
	return out, nil
}

// Workbook renders items into an "Itens" sheet and their summary into a
// "Resumo" sheet.
func Workbook(items []entity.CanonicalItem, flags aggregate.Flags) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	writeHeader(f, ItemsSheet, itemHeaders)
	for i, it := range items {
		row := i + 2
		values := []any{
			it.Code,
			string(it.TaxType),
			string(it.Section),
			it.StartPeriod,
			it.EndPeriod,
			it.DueDate,
			amount(it.OriginalValue),
			amount(it.CurrentBalance),
			amount(it.Fine),
			amount(it.Interest),
			amount(it.ConsolidatedBalance),
			it.Status,
			it.CNPJ,
			it.CNO,
		}
		writeRow(f, ItemsSheet, row, values...)
	}
	if len(items) > 0 {
		last, _ := excelize.CoordinatesToCellName(11, len(items)+1)
		_ = f.SetCellStyle(ItemsSheet, "G2", last, money)
	}
	_ = f.SetColWidth(ItemsSheet, "A", "A", 28)
	_ = f.SetColWidth(ItemsSheet, "B", "C", 30)
	_ = f.SetColWidth(ItemsSheet, "D", "F", 14)
	_ = f.SetColWidth(ItemsSheet, "G", "K", 16)
	_ = f.SetColWidth(ItemsSheet, "L", "L", 22)
	_ = f.SetColWidth(ItemsSheet, "M", "N", 20)

	sum := aggregate.Summarize(items, flags)
	writeHeader(f, SummarySheet, summaryHeaders)
	row := 2
	for _, tt := range sum.ByType {
		writeRow(f, SummarySheet, row, string(tt.TaxType), tt.Count, amount(tt.Sum), yesNo(tt.Included))
		row++
	}
	writeRow(f, SummarySheet, row+1, "TOTAL", sum.Count, amount(sum.Total), "")
	writeRow(f, SummarySheet, row+2, "TOTAL INCLUÍDO", sum.IncludedCount, amount(sum.IncludedTotal), "")
	last, _ := excelize.CoordinatesToCellName(3, row+2)
	_ = f.SetCellStyle(SummarySheet, "C2", last, money)
	_ = f.SetColWidth(SummarySheet, "A", "A", 34)
	_ = f.SetColWidth(SummarySheet, "B", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	slog.Debug("export.xlsx.rendered", "rows", len(items), "types", len(sum.ByType), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// amount keeps cents exact for the usual magnitudes; the sheet only
// displays them.
func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "SIM"
	}
	return "NÃO"
}
