package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
	"khata/internal/domain/masters"
)

type stubItemReader struct {
	items map[id.ID]masters.StockItem
}

func (s *stubItemReader) GetByID(_ context.Context, itemID id.ID) (masters.StockItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return masters.StockItem{}, apperror.NewNotFound("stock item", itemID)
	}
	return item, nil
}

func (s *stubItemReader) ListByCompany(_ context.Context, companyID id.ID) ([]masters.StockItem, error) {
	var out []masters.StockItem
	for _, item := range s.items {
		if item.CompanyID == companyID {
			out = append(out, item)
		}
	}
	return out, nil
}

// stubAggregateRepo holds dated movements and sums them per request window,
// the way the SQL aggregates do.
type stubAggregateRepo struct {
	movements map[id.ID][]BucketAggregate
	buckets   map[id.ID][]BucketAggregate
}

func (s *stubAggregateRepo) AggregateWindow(_ context.Context, _, itemID id.ID, from, to time.Time) (Aggregate, error) {
	var sum Aggregate
	for _, m := range s.movements[itemID] {
		if !from.IsZero() && m.PeriodStart.Before(from) {
			continue
		}
		if !to.IsZero() && !m.PeriodStart.Before(to) {
			continue
		}
		sum.InwardQty += m.InwardQty
		sum.InwardValue += m.InwardValue
		sum.OutwardQty += m.OutwardQty
		sum.OutwardValue += m.OutwardValue
	}
	return sum, nil
}

func (s *stubAggregateRepo) AggregateBuckets(_ context.Context, _, itemID id.ID, _ time.Time, _ Granularity) ([]BucketAggregate, error) {
	return s.buckets[itemID], nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEngine_ItemValuation_WeightedAverage(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	// Opening 10 units at 100.00, purchase 20 at 120.00, sell 15 at 180.00.
	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			Name:           "Steel Rod 12mm",
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningRate:    100_00,
			OpeningValue:   1000_00,
		},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		itemID: {{
			PeriodStart: day(2026, time.April, 10),
			Aggregate: Aggregate{
				InwardQty:    types.NewQuantityFromFloat64(20),
				InwardValue:  2400_00,
				OutwardQty:   types.NewQuantityFromFloat64(15),
				OutwardValue: 2700_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	iv, err := engine.ItemValuation(context.Background(), companyID, itemID,
		time.Time{}, day(2026, time.April, 30))
	require.NoError(t, err)

	// Pool: (1000 + 2400) / (10 + 20) = 113.333..., kept unrounded for COGS.
	assert.Equal(t, "113.33", iv.AverageRate.StringFixed(2))
	assert.Equal(t, "1700.00", iv.COGS.StringFixed(2))
	assert.Equal(t, types.NewQuantityFromFloat64(15), iv.ClosingQty)
	assert.Equal(t, "1700.00", iv.ClosingValue.StringFixed(2))
	assert.Equal(t, "2700.00", iv.SalesValue.StringFixed(2))
	assert.Equal(t, "1000.00", iv.GrossProfit.StringFixed(2))
	// 1000 / 2700 * 100.
	assert.Equal(t, "37.04", iv.ProfitPercent.StringFixed(2))
	assert.False(t, iv.LowStock)
}

func TestEngine_ItemValuation_WindowedPeriod(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	// Opening 10 at 100.00; 5 units sold in March for 900.00. An April query
	// must open at the replayed position and report no April activity.
	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			Name:           "Steel Rod 12mm",
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningValue:   1000_00,
		},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		itemID: {{
			PeriodStart: day(2026, time.March, 5),
			Aggregate: Aggregate{
				OutwardQty:   types.NewQuantityFromFloat64(5),
				OutwardValue: 900_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	iv, err := engine.ItemValuation(context.Background(), companyID, itemID,
		day(2026, time.April, 1), day(2026, time.May, 1))
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromFloat64(5), iv.OpeningQty)
	assert.Equal(t, "500.00", iv.OpeningValue.StringFixed(2))
	assert.True(t, iv.InwardQty.IsZero())
	assert.True(t, iv.OutwardQty.IsZero())
	assert.Equal(t, "100.00", iv.AverageRate.StringFixed(2))
	assert.Equal(t, types.NewQuantityFromFloat64(5), iv.ClosingQty)
	assert.Equal(t, "500.00", iv.ClosingValue.StringFixed(2))
	assert.Equal(t, "0.00", iv.GrossProfit.StringFixed(2))
	assert.True(t, iv.ProfitPercent.IsZero(), "no sales in the window")
}

func TestEngine_ItemValuation_WindowExcludesBoundary(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {ID: itemID, CompanyID: companyID},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		itemID: {{
			PeriodStart: day(2026, time.May, 1),
			Aggregate: Aggregate{
				InwardQty:   types.NewQuantityFromFloat64(20),
				InwardValue: 2400_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	// The upper bound is exclusive: a movement dated exactly at `to` stays out.
	iv, err := engine.ItemValuation(context.Background(), companyID, itemID,
		day(2026, time.April, 1), day(2026, time.May, 1))
	require.NoError(t, err)
	assert.True(t, iv.InwardQty.IsZero())
	assert.True(t, iv.ClosingQty.IsZero())
}

func TestEngine_ItemValuation_InvertedWindow(t *testing.T) {
	companyID := id.New()
	itemID := id.New()
	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {ID: itemID, CompanyID: companyID},
	}}
	engine := NewEngine(items, &stubAggregateRepo{}, passthroughTxManager{})

	_, err := engine.ItemValuation(context.Background(), companyID, itemID,
		day(2026, time.May, 1), day(2026, time.April, 1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestEngine_ItemValuation_ZeroPool(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {ID: itemID, CompanyID: companyID, Name: "PVC Pipe 2in"},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		itemID: {{
			PeriodStart: day(2026, time.April, 10),
			Aggregate: Aggregate{
				OutwardQty:   types.NewQuantityFromFloat64(5),
				OutwardValue: 500_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	iv, err := engine.ItemValuation(context.Background(), companyID, itemID,
		time.Time{}, day(2026, time.April, 30))
	require.NoError(t, err)

	// Nothing was ever in stock: the average is zero, not a division error,
	// and the consumed goods carry zero cost.
	assert.True(t, iv.AverageRate.IsZero())
	assert.True(t, iv.COGS.IsZero())
	assert.Equal(t, types.NewQuantityFromFloat64(-5), iv.ClosingQty)
	assert.Equal(t, "500.00", iv.GrossProfit.StringFixed(2))
	assert.Equal(t, "100.00", iv.ProfitPercent.StringFixed(2))
}

func TestEngine_ItemValuation_LowStockFlag(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			OpeningBalance: types.NewQuantityFromFloat64(30),
			OpeningValue:   3000_00,
			LowStockAlert:  types.NewQuantityFromFloat64(20),
		},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		itemID: {{
			PeriodStart: day(2026, time.April, 10),
			Aggregate: Aggregate{
				OutwardQty:   types.NewQuantityFromFloat64(10),
				OutwardValue: 1500_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	iv, err := engine.ItemValuation(context.Background(), companyID, itemID,
		time.Time{}, day(2026, time.April, 30))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(20), iv.ClosingQty)
	assert.True(t, iv.LowStock, "closing at exactly the threshold triggers the alert")
}

func TestEngine_ItemValuation_CompanyMismatch(t *testing.T) {
	itemID := id.New()
	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {ID: itemID, CompanyID: id.New()},
	}}
	engine := NewEngine(items, &stubAggregateRepo{}, passthroughTxManager{})

	_, err := engine.ItemValuation(context.Background(), id.New(), itemID,
		time.Time{}, day(2026, time.April, 30))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestEngine_CompanyValuation(t *testing.T) {
	companyID := id.New()
	steelID := id.New()
	pipeID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		steelID: {
			ID:             steelID,
			CompanyID:      companyID,
			Name:           "Steel Rod 12mm",
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningValue:   1000_00,
		},
		pipeID: {
			ID:             pipeID,
			CompanyID:      companyID,
			Name:           "PVC Pipe 2in",
			OpeningBalance: types.NewQuantityFromFloat64(50),
			OpeningValue:   2500_00,
			LowStockAlert:  types.NewQuantityFromFloat64(45),
		},
	}}
	repo := &stubAggregateRepo{movements: map[id.ID][]BucketAggregate{
		steelID: {{
			PeriodStart: day(2026, time.April, 10),
			Aggregate: Aggregate{
				InwardQty:    types.NewQuantityFromFloat64(20),
				InwardValue:  2400_00,
				OutwardQty:   types.NewQuantityFromFloat64(15),
				OutwardValue: 2700_00,
			},
		}},
		pipeID: {{
			PeriodStart: day(2026, time.April, 12),
			Aggregate: Aggregate{
				OutwardQty:   types.NewQuantityFromFloat64(10),
				OutwardValue: 700_00,
			},
		}},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	cv, err := engine.CompanyValuation(context.Background(), companyID,
		time.Time{}, day(2026, time.April, 30))
	require.NoError(t, err)
	require.Len(t, cv.Items, 2)

	// Steel closes at 1700.00, pipe at 50/unit average: 2500 - 10*50 = 2000.00.
	assert.Equal(t, "3700.00", cv.TotalClosingValue.StringFixed(2))
	// Steel profit 1000.00, pipe 700 - 500 = 200.00.
	assert.Equal(t, "1200.00", cv.TotalGrossProfit.StringFixed(2))
	assert.Equal(t, "3400.00", cv.TotalSalesValue.StringFixed(2))
	// 1200 / 3400 * 100.
	assert.Equal(t, "35.29", cv.ProfitPercent.StringFixed(2))
	assert.Equal(t, 1, cv.LowStockCount)
}

func TestEngine_ItemTimeline_Daily(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningValue:   1000_00,
		},
	}}
	repo := &stubAggregateRepo{buckets: map[id.ID][]BucketAggregate{
		itemID: {
			{
				PeriodStart: day(2026, time.April, 1),
				Aggregate: Aggregate{
					InwardQty:   types.NewQuantityFromFloat64(20),
					InwardValue: 2400_00,
				},
			},
			{
				PeriodStart: day(2026, time.April, 3),
				Aggregate: Aggregate{
					OutwardQty:   types.NewQuantityFromFloat64(15),
					OutwardValue: 2700_00,
				},
			},
		},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	tl, err := engine.ItemTimeline(context.Background(), companyID, itemID,
		day(2026, time.April, 1), day(2026, time.April, 3), GranularityDaily)
	require.NoError(t, err)
	require.Len(t, tl.Points, 3)

	// Day 1: purchase joins the pool.
	assert.Equal(t, types.NewQuantityFromFloat64(30), tl.Points[0].ClosingQty)
	assert.Equal(t, "3400.00", tl.Points[0].ClosingValue.StringFixed(2))
	assert.Equal(t, "113.33", tl.Points[0].AverageRate.StringFixed(2))

	// Day 2: no movement, the position carries forward unchanged.
	assert.True(t, tl.Points[1].InwardQty.IsZero())
	assert.True(t, tl.Points[1].OutwardQty.IsZero())
	assert.Equal(t, types.NewQuantityFromFloat64(30), tl.Points[1].ClosingQty)
	assert.Equal(t, "3400.00", tl.Points[1].ClosingValue.StringFixed(2))

	// Day 3: sale consumes at the running average.
	assert.Equal(t, types.NewQuantityFromFloat64(15), tl.Points[2].ClosingQty)
	assert.Equal(t, "1700.00", tl.Points[2].ClosingValue.StringFixed(2))
	assert.Equal(t, "113.33", tl.Points[2].AverageRate.StringFixed(2))
}

func TestEngine_ItemTimeline_PreWindowHistoryShapesPool(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningValue:   1000_00,
		},
	}}
	repo := &stubAggregateRepo{buckets: map[id.ID][]BucketAggregate{
		itemID: {
			{
				PeriodStart: day(2026, time.March, 15),
				Aggregate: Aggregate{
					InwardQty:   types.NewQuantityFromFloat64(20),
					InwardValue: 2400_00,
				},
			},
		},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	// The window opens after the purchase; the first point must still see
	// the blended average, not the opening rate.
	tl, err := engine.ItemTimeline(context.Background(), companyID, itemID,
		day(2026, time.April, 1), day(2026, time.April, 1), GranularityDaily)
	require.NoError(t, err)
	require.Len(t, tl.Points, 1)

	assert.Equal(t, types.NewQuantityFromFloat64(30), tl.Points[0].ClosingQty)
	assert.Equal(t, "113.33", tl.Points[0].AverageRate.StringFixed(2))
}

func TestEngine_ItemTimeline_Monthly(t *testing.T) {
	companyID := id.New()
	itemID := id.New()

	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {
			ID:             itemID,
			CompanyID:      companyID,
			OpeningBalance: types.NewQuantityFromFloat64(10),
			OpeningValue:   1000_00,
		},
	}}
	repo := &stubAggregateRepo{buckets: map[id.ID][]BucketAggregate{
		itemID: {
			{
				PeriodStart: day(2025, time.December, 1),
				Aggregate: Aggregate{
					InwardQty:   types.NewQuantityFromFloat64(20),
					InwardValue: 2400_00,
				},
			},
		},
	}}
	engine := NewEngine(items, repo, passthroughTxManager{})

	tl, err := engine.ItemTimeline(context.Background(), companyID, itemID,
		day(2025, time.November, 20), day(2026, time.February, 10), GranularityMonthly)
	require.NoError(t, err)
	require.Len(t, tl.Points, 4, "Nov, Dec, Jan, Feb across the year boundary")

	assert.Equal(t, day(2025, time.November, 1), tl.Points[0].PeriodStart)
	assert.Equal(t, day(2026, time.February, 1), tl.Points[3].PeriodStart)
	assert.Equal(t, types.NewQuantityFromFloat64(10), tl.Points[0].ClosingQty)
	assert.Equal(t, types.NewQuantityFromFloat64(30), tl.Points[1].ClosingQty)
	assert.Equal(t, types.NewQuantityFromFloat64(30), tl.Points[3].ClosingQty)
}

func TestEngine_ItemTimeline_Validation(t *testing.T) {
	companyID := id.New()
	itemID := id.New()
	items := &stubItemReader{items: map[id.ID]masters.StockItem{
		itemID: {ID: itemID, CompanyID: companyID},
	}}
	engine := NewEngine(items, &stubAggregateRepo{}, passthroughTxManager{})

	t.Run("unknown granularity", func(t *testing.T) {
		_, err := engine.ItemTimeline(context.Background(), companyID, itemID,
			day(2026, time.April, 1), day(2026, time.April, 3), "weekly")
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := engine.ItemTimeline(context.Background(), companyID, itemID,
			day(2026, time.April, 3), day(2026, time.April, 1), GranularityDaily)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}
