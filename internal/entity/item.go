package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

// CanonicalItem is the unified order item every section maps into.
type CanonicalItem struct {
	ID                  uuid.UUID             `json:"id"`
	Code                string                `json:"code"`
	TaxType             constants.TaxType     `json:"tax_type"`
	Section             constants.SectionKind `json:"section"`
	StartPeriod         string                `json:"start_period"`
	EndPeriod           string                `json:"end_period"`
	DueDate             string                `json:"due_date"`
	OriginalValue       decimal.Decimal       `json:"original_value"`
	CurrentBalance      decimal.Decimal       `json:"current_balance"`
	Fine                decimal.Decimal       `json:"fine"`
	Interest            decimal.Decimal       `json:"interest"`
	ConsolidatedBalance decimal.Decimal       `json:"consolidated_balance"`
	Status              string                `json:"status"`
	CNO                 string                `json:"cno,omitempty"`
	CNPJ                string                `json:"cnpj,omitempty"`
	// Details carries section-specific passthrough fields keyed like RawRecord fields.
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Value is the amount billed for the item: the consolidated balance
// when known, otherwise the current balance.
func (it CanonicalItem) Value() decimal.Decimal {
	if !it.ConsolidatedBalance.IsZero() {
		return it.ConsolidatedBalance
	}
	return it.CurrentBalance
}

func (it CanonicalItem) Detail(key string) string {
	return it.Details[key]
}
