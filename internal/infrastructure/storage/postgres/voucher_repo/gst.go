package voucher_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/gst"
	"khata/internal/infrastructure/storage/postgres"
)

const (
	voucherGSTTable      = "voucher_gst"
	voucherGSTItemsTable = "voucher_gst_items"
)

var (
	gstColumns = []string{
		"id", "voucher_id", "company_id", "user_id",
		"is_gst_applicable", "place_of_supply", "party_gstin", "created_at",
	}
	gstItemColumns = []string{
		"id", "voucher_gst_id", "item_id", "hsn_code", "gst_rate",
		"taxable_value", "cgst", "sgst", "igst", "total_amount",
	}
)

// GSTRepo implements gst.Repository.
type GSTRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewGSTRepo creates a GST breakdown repository.
func NewGSTRepo(txManager *postgres.TxManager) *GSTRepo {
	return &GSTRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ gst.Repository = (*GSTRepo)(nil)

// Create inserts a breakdown with its item details.
func (r *GSTRepo) Create(ctx context.Context, v *gst.VoucherGST) error {
	q := r.builder.Insert(voucherGSTTable).
		Columns(gstColumns...).
		Values(
			v.ID, v.VoucherID, v.CompanyID, v.UserID,
			v.IsGSTApplicable, v.PlaceOfSupply, v.PartyGSTIN, v.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert voucher gst: %w", err)
	}

	if len(v.ItemDetails) == 0 {
		return nil
	}

	iq := r.builder.Insert(voucherGSTItemsTable).Columns(gstItemColumns...)
	for _, d := range v.ItemDetails {
		iq = iq.Values(
			d.ID, d.VoucherGSTID, d.ItemID, d.HSNCode, d.GSTRate,
			d.TaxableValue, d.CGST, d.SGST, d.IGST, d.TotalAmount,
		)
	}

	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build item insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert gst items: %w", err)
	}
	return nil
}

// GetByVoucherID retrieves the breakdown for a voucher, with details.
func (r *GSTRepo) GetByVoucherID(ctx context.Context, voucherID id.ID) (*gst.VoucherGST, error) {
	q := r.builder.Select(gstColumns...).
		From(voucherGSTTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v gst.VoucherGST
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("voucher gst", voucherID)
		}
		return nil, fmt.Errorf("get voucher gst: %w", err)
	}

	iq := r.builder.Select(gstItemColumns...).
		From(voucherGSTItemsTable).
		Where(squirrel.Eq{"voucher_gst_id": v.ID}).
		OrderBy("id")

	sql, args, err = iq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &v.ItemDetails, sql, args...); err != nil {
		return nil, fmt.Errorf("select gst items: %w", err)
	}
	return &v, nil
}

// DeleteByVoucherID removes the breakdown and its details. Vouchers without a
// breakdown are a no-op.
func (r *GSTRepo) DeleteByVoucherID(ctx context.Context, voucherID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	itemsSQL := `
		DELETE FROM voucher_gst_items
		WHERE voucher_gst_id IN (SELECT id FROM voucher_gst WHERE voucher_id = $1)
	`
	if _, err := querier.Exec(ctx, itemsSQL, voucherID); err != nil {
		return fmt.Errorf("delete gst items: %w", err)
	}

	sql, args, err := r.builder.Delete(voucherGSTTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete voucher gst: %w", err)
	}
	return nil
}
