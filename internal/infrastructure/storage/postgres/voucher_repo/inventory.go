package voucher_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/voucher"
	"khata/internal/infrastructure/storage/postgres"
)

const inventoryEntriesTable = "inventory_entries"

var inventoryColumns = []string{
	"id", "voucher_id", "item", "item_id",
	"quantity", "rate", "amount",
	"additional_amount", "discount_amount",
	"godown", "godown_id", "order_number", "order_due_date",
}

// InventoryRepo implements voucher.InventoryRepository.
type InventoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInventoryRepo creates an inventory entry repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ voucher.InventoryRepository = (*InventoryRepo)(nil)

// CreateBatch inserts entries for one voucher.
func (r *InventoryRepo) CreateBatch(ctx context.Context, entries []voucher.InventoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.VoucherID, e.Item, e.ItemID,
				e.Quantity, e.Rate, e.Amount,
				e.AdditionalAmount, e.DiscountAmount,
				e.Godown, e.GodownID, e.OrderNumber, e.OrderDueDate,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, inventoryEntriesTable, inventoryColumns, rows); err != nil {
			return fmt.Errorf("copy inventory entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(inventoryEntriesTable).Columns(inventoryColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.VoucherID, e.Item, e.ItemID,
			e.Quantity, e.Rate, e.Amount,
			e.AdditionalAmount, e.DiscountAmount,
			e.Godown, e.GodownID, e.OrderNumber, e.OrderDueDate,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert inventory entries: %w", err)
	}
	return nil
}

// GetByVoucher retrieves all entries of a voucher in insertion order.
func (r *InventoryRepo) GetByVoucher(ctx context.Context, voucherID id.ID) ([]voucher.InventoryEntry, error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryEntriesTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []voucher.InventoryEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select inventory entries: %w", err)
	}
	return entries, nil
}

// Update rewrites one entry in place.
func (r *InventoryRepo) Update(ctx context.Context, e voucher.InventoryEntry) error {
	q := r.builder.Update(inventoryEntriesTable).
		Set("item", e.Item).
		Set("item_id", e.ItemID).
		Set("quantity", e.Quantity).
		Set("rate", e.Rate).
		Set("amount", e.Amount).
		Set("additional_amount", e.AdditionalAmount).
		Set("discount_amount", e.DiscountAmount).
		Set("godown", e.Godown).
		Set("godown_id", e.GodownID).
		Set("order_number", e.OrderNumber).
		Set("order_due_date", e.OrderDueDate).
		Where(squirrel.Eq{"id": e.ID, "voucher_id": e.VoucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update inventory entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory entry", e.ID)
	}
	return nil
}

// Delete removes one entry.
func (r *InventoryRepo) Delete(ctx context.Context, entryID id.ID) error {
	q := r.builder.Delete(inventoryEntriesTable).Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete inventory entry: %w", err)
	}
	return nil
}

// DeleteByVoucher removes all entries of a voucher.
func (r *InventoryRepo) DeleteByVoucher(ctx context.Context, voucherID id.ID) error {
	q := r.builder.Delete(inventoryEntriesTable).Where(squirrel.Eq{"voucher_id": voucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete inventory entries: %w", err)
	}
	return nil
}
