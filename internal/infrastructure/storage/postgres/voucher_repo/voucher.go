// Package voucher_repo provides PostgreSQL implementations for the voucher
// repositories: the voucher header and its owned accounting and inventory
// entry sets.
package voucher_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/voucher"
	"khata/internal/infrastructure/storage/postgres"
)

const vouchersTable = "vouchers"

var voucherColumns = []string{
	"id", "company_id", "user_id",
	"date", "voucher_number", "voucher_type", "voucher_type_id",
	"party_name", "party_name_id",
	"narration", "reference_number", "reference_date",
	"place_of_supply", "vehicle_number", "mode_of_transport", "status", "due_date",
	"is_invoice", "is_accounting_voucher", "is_inventory_voucher", "is_order_voucher",
	"is_deleted", "created_at", "updated_at",
}

// VoucherRepo implements voucher.Repository.
type VoucherRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewVoucherRepo creates a voucher repository.
func NewVoucherRepo(txManager *postgres.TxManager) *VoucherRepo {
	return &VoucherRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ voucher.Repository = (*VoucherRepo)(nil)

// isUniqueViolation reports a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a voucher header.
func (r *VoucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	q := r.builder.Insert(vouchersTable).
		Columns(voucherColumns...).
		Values(
			v.ID, v.CompanyID, v.UserID,
			v.Date, v.VoucherNumber, v.VoucherType, v.VoucherTypeID,
			v.PartyName, v.PartyNameID,
			v.Narration, v.ReferenceNumber, v.ReferenceDate,
			v.PlaceOfSupply, v.VehicleNumber, v.ModeOfTransport, v.Status, v.DueDate,
			v.IsInvoice, v.IsAccountingVoucher, v.IsInventoryVoucher, v.IsOrderVoucher,
			v.IsDeleted, v.CreatedAt, v.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicateVoucherNumber(v.VoucherNumber).WithCause(err)
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// GetByID retrieves a voucher header. Soft-deleted vouchers are invisible.
func (r *VoucherRepo) GetByID(ctx context.Context, voucherID id.ID) (*voucher.Voucher, error) {
	q := r.builder.Select(voucherColumns...).
		From(vouchersTable).
		Where(squirrel.Eq{"id": voucherID, "is_deleted": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v voucher.Voucher
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("voucher", voucherID)
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return &v, nil
}

// Update rewrites the voucher header.
func (r *VoucherRepo) Update(ctx context.Context, v *voucher.Voucher) error {
	q := r.builder.Update(vouchersTable).
		Set("date", v.Date).
		Set("party_name", v.PartyName).
		Set("party_name_id", v.PartyNameID).
		Set("narration", v.Narration).
		Set("reference_number", v.ReferenceNumber).
		Set("reference_date", v.ReferenceDate).
		Set("place_of_supply", v.PlaceOfSupply).
		Set("vehicle_number", v.VehicleNumber).
		Set("mode_of_transport", v.ModeOfTransport).
		Set("status", v.Status).
		Set("due_date", v.DueDate).
		Set("is_deleted", v.IsDeleted).
		Set("updated_at", v.UpdatedAt).
		Where(squirrel.Eq{"id": v.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("voucher", v.ID)
	}
	return nil
}

// Delete hard-deletes the voucher row. Used by saga compensation; the public
// delete path soft-deletes through Update.
func (r *VoucherRepo) Delete(ctx context.Context, voucherID id.ID) error {
	q := r.builder.Delete(vouchersTable).Where(squirrel.Eq{"id": voucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	return nil
}

// List retrieves vouchers with filtering and pagination.
func (r *VoucherRepo) List(ctx context.Context, filter voucher.ListFilter) (voucher.ListResult, error) {
	result := voucher.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if result.Limit <= 0 {
		result.Limit = 50
	}

	where := squirrel.And{squirrel.Eq{"company_id": filter.CompanyID}}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Eq{"is_deleted": false})
	}
	if filter.VoucherType != nil {
		where = append(where, squirrel.Eq{"voucher_type": *filter.VoucherType})
	}
	if filter.PartyNameID != nil {
		where = append(where, squirrel.Eq{"party_name_id": *filter.PartyNameID})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"date": *filter.DateTo})
	}

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From(vouchersTable).Where(where).ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count vouchers: %w", err)
	}

	q := r.builder.Select(voucherColumns...).
		From(vouchersTable).
		Where(where).
		OrderBy("date DESC", "created_at DESC").
		Limit(uint64(result.Limit)).
		Offset(uint64(result.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select vouchers: %w", err)
	}
	return result, nil
}
