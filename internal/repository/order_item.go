package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

const orderItemsTable = "order_items"

// insertBatchSize keeps multi-row inserts under SQLite's bound-variable limit.
const insertBatchSize = 200

var orderItemColumns = []string{
	"id", "import_id", "position", "code", "tax_type", "section",
	"start_period", "end_period", "due_date",
	"original_value", "current_balance", "fine", "interest", "consolidated_balance",
	"status", "cno", "cnpj", "details", "created_at", "updated_at",
}

type OrderItemRepository interface {
	// SaveAll stores items of one import in order, in a single transaction.
	SaveAll(ctx context.Context, importID uuid.UUID, items []entity.CanonicalItem) error
	ListByImport(ctx context.Context, importID uuid.UUID) ([]entity.CanonicalItem, error)
}

type orderItemRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewOrderItemRepository(db *DB, logger *slog.Logger) OrderItemRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderItemRepo{db: db, logger: logger}
}

func (r *orderItemRepo) SaveAll(ctx context.Context, importID uuid.UUID, items []entity.CanonicalItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	for from := 0; from < len(items); from += insertBatchSize {
		to := min(from+insertBatchSize, len(items))
		q, args, err := r.insertQuery(importID, items, from, to)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			_ = tx.Rollback()
			r.logger.Error("order_items insert failed", "import_id", importID, "items", len(items), "err", err)
			return fmt.Errorf("%w: insert order items: %v", common.ErrDatabase, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.logger.Debug("order_items saved", "import_id", importID, "items", len(items))
	return nil
}

// insertQuery builds one multi-row insert for items[from:to]; position
// is the index in the full slice.
func (r *orderItemRepo) insertQuery(importID uuid.UUID, items []entity.CanonicalItem, from, to int) (string, []any, error) {
	ins := r.db.builder().Insert(orderItemsTable).Columns(orderItemColumns...)
	for i := from; i < to; i++ {
		it := items[i]
		details, err := encodeDetails(it.Details)
		if err != nil {
			return "", nil, fmt.Errorf("encode details of %s: %w", it.Code, err)
		}
		ins.Values(
			it.ID.String(), importID.String(), i, it.Code, string(it.TaxType), string(it.Section),
			it.StartPeriod, it.EndPeriod, it.DueDate,
			it.OriginalValue, it.CurrentBalance, it.Fine, it.Interest, it.ConsolidatedBalance,
			it.Status, nullable(it.CNO), nullable(it.CNPJ), details, it.CreatedAt, it.UpdatedAt,
		)
	}
	q, args := ins.Query()
	return q, args, nil
}

func (r *orderItemRepo) ListByImport(ctx context.Context, importID uuid.UUID) ([]entity.CanonicalItem, error) {
	q, args := r.db.builder().Select(orderItemColumns...).
		From(entsql.Table(orderItemsTable)).
		Where(entsql.EQ("import_id", importID.String())).
		OrderBy("position").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list order items", "import_id", importID, "error", err)
		return nil, fmt.Errorf("%w: list order items: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.CanonicalItem
	for rows.Next() {
		var (
			it                        entity.CanonicalItem
			id, imp, taxType, section string
			position                  int
			cno, cnpj, details        sql.NullString
		)
		if err := rows.Scan(&id, &imp, &position, &it.Code, &taxType, &section,
			&it.StartPeriod, &it.EndPeriod, &it.DueDate,
			&it.OriginalValue, &it.CurrentBalance, &it.Fine, &it.Interest, &it.ConsolidatedBalance,
			&it.Status, &cno, &cnpj, &details, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan order item: %v", common.ErrDatabase, err)
		}
		if it.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: order item id %q: %v", common.ErrDatabase, id, err)
		}
		it.TaxType = constants.TaxType(taxType)
		it.Section = constants.SectionKind(section)
		it.CNO = cno.String
		it.CNPJ = cnpj.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &it.Details); err != nil {
				return nil, fmt.Errorf("%w: decode details: %v", common.ErrDatabase, err)
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func encodeDetails(details map[string]string) (*string, error) {
	if len(details) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
