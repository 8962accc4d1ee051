// Package valuation_repo provides the PostgreSQL read model of the valuation
// engine: movement aggregates over inventory entries joined to their
// vouchers. Soft-deleted vouchers and order vouchers never contribute.
package valuation_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/id"
	"khata/internal/domain/valuation"
	"khata/internal/infrastructure/storage/postgres"
)

// AggregateRepo implements valuation.Repository.
type AggregateRepo struct {
	txManager *postgres.TxManager
}

// NewAggregateRepo creates a valuation aggregate repository.
func NewAggregateRepo(txManager *postgres.TxManager) *AggregateRepo {
	return &AggregateRepo{txManager: txManager}
}

var _ valuation.Repository = (*AggregateRepo)(nil)

// AggregateWindow sums an item's movements with from <= voucher date < to.
// Outward quantities are stored negative and flipped to positive magnitudes
// here.
func (r *AggregateRepo) AggregateWindow(ctx context.Context, companyID, itemID id.ID, from, to time.Time) (valuation.Aggregate, error) {
	sql := `
		SELECT
			COALESCE(SUM(CASE WHEN e.quantity > 0 THEN e.quantity ELSE 0 END), 0) AS inward_qty,
			COALESCE(SUM(CASE WHEN e.quantity > 0 THEN e.amount ELSE 0 END), 0)   AS inward_value,
			COALESCE(SUM(CASE WHEN e.quantity < 0 THEN -e.quantity ELSE 0 END), 0) AS outward_qty,
			COALESCE(SUM(CASE WHEN e.quantity < 0 THEN e.amount ELSE 0 END), 0)   AS outward_value
		FROM inventory_entries e
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE v.company_id = $1
		  AND e.item_id = $2
		  AND v.is_deleted = false
		  AND v.is_order_voucher = false
		  AND ($3::timestamptz IS NULL OR v.date >= $3)
		  AND ($4::timestamptz IS NULL OR v.date < $4)
	`

	var fromArg, toArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	if !to.IsZero() {
		toArg = &to
	}

	var agg valuation.Aggregate
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &agg, sql, companyID, itemID, fromArg, toArg); err != nil {
		return valuation.Aggregate{}, fmt.Errorf("aggregate movements: %w", err)
	}
	return agg, nil
}

// AggregateBuckets sums an item's movements per day or month of voucher date.
func (r *AggregateRepo) AggregateBuckets(ctx context.Context, companyID, itemID id.ID, to time.Time, g valuation.Granularity) ([]valuation.BucketAggregate, error) {
	trunc := "day"
	if g == valuation.GranularityMonthly {
		trunc = "month"
	}

	sql := fmt.Sprintf(`
		SELECT
			date_trunc('%s', v.date AT TIME ZONE 'UTC') AS period_start,
			COALESCE(SUM(CASE WHEN e.quantity > 0 THEN e.quantity ELSE 0 END), 0) AS inward_qty,
			COALESCE(SUM(CASE WHEN e.quantity > 0 THEN e.amount ELSE 0 END), 0)   AS inward_value,
			COALESCE(SUM(CASE WHEN e.quantity < 0 THEN -e.quantity ELSE 0 END), 0) AS outward_qty,
			COALESCE(SUM(CASE WHEN e.quantity < 0 THEN e.amount ELSE 0 END), 0)   AS outward_value
		FROM inventory_entries e
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE v.company_id = $1
		  AND e.item_id = $2
		  AND v.is_deleted = false
		  AND v.is_order_voucher = false
		  AND ($3::timestamptz IS NULL OR v.date <= $3)
		GROUP BY 1
		ORDER BY 1
	`, trunc)

	var toArg *time.Time
	if !to.IsZero() {
		toArg = &to
	}

	var buckets []valuation.BucketAggregate
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &buckets, sql, companyID, itemID, toArg); err != nil {
		return nil, fmt.Errorf("aggregate buckets: %w", err)
	}
	return buckets, nil
}
