package valuation

import (
	"context"
	"time"

	"khata/internal/core/id"
	"khata/internal/core/types"
)

// Aggregate is the summed movement of one item over some period. Outward
// figures are reported as positive magnitudes even though stored outward
// quantities are negative.
type Aggregate struct {
	InwardQty    types.Quantity   `db:"inward_qty"`
	InwardValue  types.MinorUnits `db:"inward_value"`
	OutwardQty   types.Quantity   `db:"outward_qty"`
	OutwardValue types.MinorUnits `db:"outward_value"`
}

// BucketAggregate is an Aggregate keyed by its period start.
type BucketAggregate struct {
	PeriodStart time.Time `db:"period_start"`
	Aggregate
}

// Repository reads movement aggregates. Implementations must join entries to
// their vouchers and exclude soft-deleted vouchers and order vouchers, which
// never affect valuation.
type Repository interface {
	// AggregateWindow sums an item's movements with from <= voucher date < to.
	// A zero bound means unbounded on that side.
	AggregateWindow(ctx context.Context, companyID, itemID id.ID, from, to time.Time) (Aggregate, error)

	// AggregateBuckets sums an item's movements per period, bounded above
	// by `to` (zero means unbounded). Periods without movement are absent
	// from the result; the caller zero-fills.
	AggregateBuckets(ctx context.Context, companyID, itemID id.ID, to time.Time, g Granularity) ([]BucketAggregate, error)
}
