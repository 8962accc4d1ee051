// Package valuation computes weighted-average stock values by replaying
// inventory movements. Nothing here writes; every figure is derived on read
// from the opening balance and the surviving voucher entries.
package valuation

import (
	"time"

	"khata/internal/core/id"
	"khata/internal/core/types"
)

// Granularity selects the bucket size of a valuation timeline.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == GranularityDaily || g == GranularityMonthly
}

// ItemValuation is the derived stock position of one item over the window
// [From, To). The opening figures are the position at From, replayed from the
// master opening balance through every earlier movement; inward, outward and
// the profit figures cover the window only. Derived money figures are rounded
// to 2 decimal places; the average rate used internally keeps full precision
// so rounding never compounds.
type ItemValuation struct {
	ItemID id.ID     `json:"itemId"`
	Item   string    `json:"item,omitempty"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`

	OpeningQty   types.Quantity `json:"openingQty"`
	OpeningValue types.Money    `json:"openingValue"`

	InwardQty    types.Quantity `json:"inwardQty"`
	InwardValue  types.Money    `json:"inwardValue"`
	OutwardQty   types.Quantity `json:"outwardQty"`
	OutwardValue types.Money    `json:"outwardValue"`

	AverageRate  types.Money    `json:"averageRate"`
	ClosingQty   types.Quantity `json:"closingQty"`
	ClosingValue types.Money    `json:"closingValue"`

	COGS          types.Money `json:"cogs"`
	SalesValue    types.Money `json:"salesValue"`
	GrossProfit   types.Money `json:"grossProfit"`
	ProfitPercent types.Money `json:"profitPercent"`

	LowStock bool `json:"lowStock"`
}

// CompanyValuation is the per-item rollup for a whole company over [From, To).
type CompanyValuation struct {
	CompanyID id.ID     `json:"companyId"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`

	Items []ItemValuation `json:"items"`

	TotalClosingValue types.Money `json:"totalClosingValue"`
	TotalSalesValue   types.Money `json:"totalSalesValue"`
	TotalGrossProfit  types.Money `json:"totalGrossProfit"`
	ProfitPercent     types.Money `json:"profitPercent"`
	LowStockCount     int         `json:"lowStockCount"`
}

// TimelinePoint is one bucket of a valuation timeline. Buckets with no
// movement still appear, carrying the position forward unchanged.
type TimelinePoint struct {
	PeriodStart time.Time `json:"periodStart"`

	InwardQty    types.Quantity `json:"inwardQty"`
	InwardValue  types.Money    `json:"inwardValue"`
	OutwardQty   types.Quantity `json:"outwardQty"`
	OutwardValue types.Money    `json:"outwardValue"`

	ClosingQty   types.Quantity `json:"closingQty"`
	ClosingValue types.Money    `json:"closingValue"`
	AverageRate  types.Money    `json:"averageRate"`
}

// Timeline is the bucketed valuation history of one item.
type Timeline struct {
	ItemID      id.ID       `json:"itemId"`
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Granularity Granularity `json:"granularity"`

	Points []TimelinePoint `json:"points"`
}
