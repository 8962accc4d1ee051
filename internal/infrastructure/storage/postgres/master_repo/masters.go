// Package master_repo provides PostgreSQL read access to master data:
// companies, ledgers and stock items. Masters are maintained outside this
// service, so only lookups exist here.
package master_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/masters"
	"khata/internal/infrastructure/storage/postgres"
)

const (
	companiesTable  = "companies"
	ledgersTable    = "ledgers"
	stockItemsTable = "stock_items"
)

var (
	companyColumns = []string{"id", "name", "gstin", "state"}
	ledgerColumns  = []string{"id", "company_id", "name", "group_name", "gstin", "mailing_state_code"}
	itemColumns    = []string{
		"id", "company_id", "name", "unit", "hsn_code", "gst_rate",
		"opening_balance", "opening_rate", "opening_value", "low_stock_alert",
	}
)

// CompanyRepo implements masters.CompanyReader.
type CompanyRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewCompanyRepo creates a company repository.
func NewCompanyRepo(txManager *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masters.CompanyReader = (*CompanyRepo)(nil)

// GetByID retrieves a company.
func (r *CompanyRepo) GetByID(ctx context.Context, companyID id.ID) (masters.Company, error) {
	q := r.builder.Select(companyColumns...).
		From(companiesTable).
		Where(squirrel.Eq{"id": companyID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return masters.Company{}, fmt.Errorf("build query: %w", err)
	}

	var c masters.Company
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return masters.Company{}, apperror.NewNotFound("company", companyID)
		}
		return masters.Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// LedgerRepo implements masters.LedgerReader.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masters.LedgerReader = (*LedgerRepo)(nil)

// GetByID retrieves a ledger by id.
func (r *LedgerRepo) GetByID(ctx context.Context, ledgerID id.ID) (masters.Ledger, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgersTable).
		Where(squirrel.Eq{"id": ledgerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return masters.Ledger{}, fmt.Errorf("build query: %w", err)
	}

	var l masters.Ledger
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return masters.Ledger{}, apperror.NewNotFound("ledger", ledgerID)
		}
		return masters.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}
	return l, nil
}

// GetByName retrieves a ledger by name within a company.
func (r *LedgerRepo) GetByName(ctx context.Context, companyID id.ID, name string) (masters.Ledger, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgersTable).
		Where(squirrel.Eq{"company_id": companyID, "name": name}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return masters.Ledger{}, fmt.Errorf("build query: %w", err)
	}

	var l masters.Ledger
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return masters.Ledger{}, apperror.NewNotFound("ledger", name)
		}
		return masters.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}
	return l, nil
}

// StockItemRepo implements masters.StockItemReader.
type StockItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockItemRepo creates a stock item repository.
func NewStockItemRepo(txManager *postgres.TxManager) *StockItemRepo {
	return &StockItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ masters.StockItemReader = (*StockItemRepo)(nil)

// GetByID retrieves a stock item by id.
func (r *StockItemRepo) GetByID(ctx context.Context, itemID id.ID) (masters.StockItem, error) {
	q := r.builder.Select(itemColumns...).
		From(stockItemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return masters.StockItem{}, fmt.Errorf("build query: %w", err)
	}

	var item masters.StockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return masters.StockItem{}, apperror.NewNotFound("stock item", itemID)
		}
		return masters.StockItem{}, fmt.Errorf("get stock item: %w", err)
	}
	return item, nil
}

// ListByCompany retrieves all stock items of a company.
func (r *StockItemRepo) ListByCompany(ctx context.Context, companyID id.ID) ([]masters.StockItem, error) {
	q := r.builder.Select(itemColumns...).
		From(stockItemsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []masters.StockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock items: %w", err)
	}
	return items, nil
}
