// Package aggregate groups canonical items by tax type and totals the
// ones an order includes.
package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

// Flags says which tax types count towards the filtered total.
type Flags map[constants.TaxType]bool

// DefaultFlags includes everything except suspended debits and SIEFPAR
// installments.
func DefaultFlags() Flags {
	return Flags{
		constants.TaxTypeDebit:           true,
		constants.TaxTypeSimplesNacional: true,
		constants.TaxTypeDebitSuspended:  false,
		constants.TaxTypeSiefpar:         false,
		constants.TaxTypeSida:            true,
		constants.TaxTypeSispar:          true,
		constants.TaxTypeFiscalProcess:   true,
		constants.TaxTypeSicob:           true,
		constants.TaxTypeDARF:            true,
	}
}

// Included resolves t against f, then the defaults. Per-tax-name debit
// types follow the DEBITO flag and unknown types are included.
func (f Flags) Included(t constants.TaxType) bool {
	if slices.Contains(constants.DebitTaxNames, t) {
		t = constants.TaxTypeDebit
	}
	if v, ok := f[t]; ok {
		return v
	}
	if v, ok := DefaultFlags()[t]; ok {
		return v
	}
	return true
}

type TypeTotal struct {
	TaxType  constants.TaxType `json:"tax_type"`
	Count    int               `json:"count"`
	Sum      decimal.Decimal   `json:"sum"`
	Included bool              `json:"included"`
}

type Summary struct {
	ByType []TypeTotal `json:"by_type"`
	Count  int         `json:"count"`
	// Total ignores the flags; IncludedTotal honours them.
	Total         decimal.Decimal `json:"total"`
	IncludedCount int             `json:"included_count"`
	IncludedTotal decimal.Decimal `json:"included_total"`
}

// Of returns the TypeTotal for t, zero when absent.
func (s Summary) Of(t constants.TaxType) TypeTotal {
	for _, tt := range s.ByType {
		if tt.TaxType == t {
			return tt
		}
	}
	return TypeTotal{TaxType: t}
}

// Summarize totals items by Value. A nil flags map means DefaultFlags.
// ByType follows the order in which tax types first appear.
func Summarize(items []entity.CanonicalItem, flags Flags) Summary {
	if flags == nil {
		flags = DefaultFlags()
	}
	s := Summary{Total: decimal.Zero, IncludedTotal: decimal.Zero}
	index := map[constants.TaxType]int{}
	for _, it := range items {
		v := it.Value()
		i, ok := index[it.TaxType]
		if !ok {
			i = len(s.ByType)
			index[it.TaxType] = i
			s.ByType = append(s.ByType, TypeTotal{
				TaxType:  it.TaxType,
				Sum:      decimal.Zero,
				Included: flags.Included(it.TaxType),
			})
		}
		s.ByType[i].Count++
		s.ByType[i].Sum = s.ByType[i].Sum.Add(v)

		s.Count++
		s.Total = s.Total.Add(v)
		if s.ByType[i].Included {
			s.IncludedCount++
			s.IncludedTotal = s.IncludedTotal.Add(v)
		}
	}
	return s
}
