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

const accountingEntriesTable = "accounting_entries"

var accountingColumns = []string{"id", "voucher_id", "ledger", "ledger_id", "amount"}

// AccountingRepo implements voucher.AccountingRepository.
type AccountingRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewAccountingRepo creates an accounting entry repository.
func NewAccountingRepo(txManager *postgres.TxManager) *AccountingRepo {
	return &AccountingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ voucher.AccountingRepository = (*AccountingRepo)(nil)

// CreateBatch inserts entries for one voucher. Inside a transaction the COPY
// protocol is used; otherwise a multi-row insert.
func (r *AccountingRepo) CreateBatch(ctx context.Context, entries []voucher.AccountingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{e.ID, e.VoucherID, e.Ledger, e.LedgerID, e.Amount})
		}
		if _, err := inserter.CopyFromSlice(ctx, accountingEntriesTable, accountingColumns, rows); err != nil {
			return fmt.Errorf("copy accounting entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(accountingEntriesTable).Columns(accountingColumns...)
	for _, e := range entries {
		q = q.Values(e.ID, e.VoucherID, e.Ledger, e.LedgerID, e.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert accounting entries: %w", err)
	}
	return nil
}

// GetByVoucher retrieves all entries of a voucher in insertion order.
func (r *AccountingRepo) GetByVoucher(ctx context.Context, voucherID id.ID) ([]voucher.AccountingEntry, error) {
	q := r.builder.Select(accountingColumns...).
		From(accountingEntriesTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []voucher.AccountingEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select accounting entries: %w", err)
	}
	return entries, nil
}

// Update rewrites one entry in place.
func (r *AccountingRepo) Update(ctx context.Context, e voucher.AccountingEntry) error {
	q := r.builder.Update(accountingEntriesTable).
		Set("ledger", e.Ledger).
		Set("ledger_id", e.LedgerID).
		Set("amount", e.Amount).
		Where(squirrel.Eq{"id": e.ID, "voucher_id": e.VoucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update accounting entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("accounting entry", e.ID)
	}
	return nil
}

// Delete removes one entry.
func (r *AccountingRepo) Delete(ctx context.Context, entryID id.ID) error {
	q := r.builder.Delete(accountingEntriesTable).Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete accounting entry: %w", err)
	}
	return nil
}

// DeleteByVoucher removes all entries of a voucher.
func (r *AccountingRepo) DeleteByVoucher(ctx context.Context, voucherID id.ID) error {
	q := r.builder.Delete(accountingEntriesTable).Where(squirrel.Eq{"voucher_id": voucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete accounting entries: %w", err)
	}
	return nil
}
