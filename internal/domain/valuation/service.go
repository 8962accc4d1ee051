package valuation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/tx"
	"khata/internal/core/types"
	"khata/internal/domain/masters"
	"khata/pkg/logger"
)

// Engine replays inventory movements into weighted-average valuations.
type Engine struct {
	items masters.StockItemReader
	repo  Repository
	txm   tx.ReadOnlyManager
}

// NewEngine creates a valuation engine.
func NewEngine(items masters.StockItemReader, repo Repository, txm tx.ReadOnlyManager) *Engine {
	return &Engine{items: items, repo: repo, txm: txm}
}

// position is the full-precision running state of a replay.
type position struct {
	qty   decimal.Decimal
	value decimal.Decimal
}

// avgRate is value/qty at full precision, zero when the quantity is zero or
// negative. The unrounded rate feeds every downstream figure so the 2dp
// rounding of outputs never compounds across movements.
func (p position) avgRate() decimal.Decimal {
	if !p.qty.IsPositive() {
		return decimal.Zero
	}
	return p.value.Div(p.qty)
}

// consume removes qty at the current average rate and returns the cost of
// the consumed goods.
func (p *position) consume(qty decimal.Decimal) decimal.Decimal {
	cost := p.avgRate().Mul(qty)
	p.qty = p.qty.Sub(qty)
	p.value = p.value.Sub(cost)
	return cost
}

// ItemValuation computes the stock position of one item over [from, to).
//
// Movements before the window replay into the opening position first, so the
// window's average rate carries the item's full history. The weighted average
// then treats that opening and every in-window inward movement as one pool:
// avg = (openingValue + inwardValue) / (openingQty + inwardQty). Outward cost
// of goods sold is outwardQty * avg. A zero bound means unbounded on that
// side.
func (e *Engine) ItemValuation(ctx context.Context, companyID, itemID id.ID, from, to time.Time) (ItemValuation, error) {
	if err := validateWindow(from, to); err != nil {
		return ItemValuation{}, err
	}

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return ItemValuation{}, err
	}
	if !id.IsNil(companyID) && item.CompanyID != companyID {
		return ItemValuation{}, apperror.NewNotFound("stock item", itemID)
	}

	agg, err := e.windowAggregates(ctx, item.CompanyID, itemID, from, to)
	if err != nil {
		return ItemValuation{}, err
	}

	return e.derive(item, from, to, agg), nil
}

// windowAggregate pairs the pre-window history with the in-window movement.
type windowAggregate struct {
	pre    Aggregate
	window Aggregate
}

func (e *Engine) windowAggregates(ctx context.Context, companyID, itemID id.ID, from, to time.Time) (windowAggregate, error) {
	var agg windowAggregate
	if !from.IsZero() {
		pre, err := e.repo.AggregateWindow(ctx, companyID, itemID, time.Time{}, from)
		if err != nil {
			return windowAggregate{}, err
		}
		agg.pre = pre
	}
	window, err := e.repo.AggregateWindow(ctx, companyID, itemID, from, to)
	if err != nil {
		return windowAggregate{}, err
	}
	agg.window = window
	return agg, nil
}

func validateWindow(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperror.NewValidation("valuation window is inverted")
	}
	return nil
}

func (e *Engine) derive(item masters.StockItem, from, to time.Time, agg windowAggregate) ItemValuation {
	opening := position{
		qty:   item.OpeningBalance.Decimal(),
		value: item.OpeningValue.Decimal(),
	}
	applyBucket(&opening, agg.pre)
	openingQty := item.OpeningBalance + agg.pre.InwardQty - agg.pre.OutwardQty

	window := agg.window
	pool := position{
		qty:   opening.qty.Add(window.InwardQty.Decimal()),
		value: opening.value.Add(window.InwardValue.Decimal()),
	}
	avg := pool.avgRate()
	cogs := avg.Mul(window.OutwardQty.Decimal())

	closingQty := openingQty + window.InwardQty - window.OutwardQty
	closingValue := pool.value.Sub(cogs)
	salesValue := window.OutwardValue.Decimal().Abs()
	grossProfit := salesValue.Sub(cogs)

	profitPercent := decimal.Zero
	if !salesValue.IsZero() {
		profitPercent = grossProfit.Div(salesValue).Shift(2)
	}

	return ItemValuation{
		ItemID:        item.ID,
		Item:          item.Name,
		From:          from,
		To:            to,
		OpeningQty:    openingQty,
		OpeningValue:  opening.value.Round(2),
		InwardQty:     window.InwardQty,
		InwardValue:   window.InwardValue.Decimal(),
		OutwardQty:    window.OutwardQty,
		OutwardValue:  salesValue,
		AverageRate:   avg.Round(2),
		ClosingQty:    closingQty,
		ClosingValue:  closingValue.Round(2),
		COGS:          cogs.Round(2),
		SalesValue:    salesValue,
		GrossProfit:   grossProfit.Round(2),
		ProfitPercent: profitPercent.Round(2),
		LowStock:      item.LowStockAlert.IsPositive() && closingQty <= item.LowStockAlert,
	}
}

// CompanyValuation computes the valuation of every item of a company over
// [from, to) inside one read-only transaction, so all items see the same
// snapshot.
func (e *Engine) CompanyValuation(ctx context.Context, companyID id.ID, from, to time.Time) (CompanyValuation, error) {
	if err := validateWindow(from, to); err != nil {
		return CompanyValuation{}, err
	}

	result := CompanyValuation{
		CompanyID: companyID,
		From:      from,
		To:        to,
	}

	err := e.txm.ReadOnly(ctx, func(ctx context.Context) error {
		items, err := e.items.ListByCompany(ctx, companyID)
		if err != nil {
			return err
		}

		totalClosing := decimal.Zero
		totalSales := decimal.Zero
		totalProfit := decimal.Zero
		for _, item := range items {
			agg, err := e.windowAggregates(ctx, companyID, item.ID, from, to)
			if err != nil {
				return err
			}
			iv := e.derive(item, from, to, agg)
			result.Items = append(result.Items, iv)
			totalClosing = totalClosing.Add(iv.ClosingValue)
			totalSales = totalSales.Add(iv.SalesValue)
			totalProfit = totalProfit.Add(iv.GrossProfit)
			if iv.LowStock {
				result.LowStockCount++
			}
		}
		result.TotalClosingValue = totalClosing
		result.TotalSalesValue = totalSales
		result.TotalGrossProfit = totalProfit
		result.ProfitPercent = decimal.Zero
		if !totalSales.IsZero() {
			result.ProfitPercent = totalProfit.Div(totalSales).Shift(2).Round(2)
		}
		return nil
	})
	if err != nil {
		return CompanyValuation{}, err
	}

	logger.Debug(ctx, "company valuation computed",
		"company_id", companyID,
		"items", len(result.Items),
		"low_stock", result.LowStockCount)
	return result, nil
}

// ItemTimeline replays an item's history into zero-filled buckets. The replay
// always starts from the opening balance so each bucket's average rate
// reflects everything before it, even before the requested window.
func (e *Engine) ItemTimeline(ctx context.Context, companyID, itemID id.ID, from, to time.Time, g Granularity) (Timeline, error) {
	if !g.Valid() {
		return Timeline{}, apperror.NewValidation("granularity must be daily or monthly").
			WithDetail("granularity", string(g))
	}
	if to.Before(from) {
		return Timeline{}, apperror.NewValidation("timeline range is inverted")
	}

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return Timeline{}, err
	}
	if !id.IsNil(companyID) && item.CompanyID != companyID {
		return Timeline{}, apperror.NewNotFound("stock item", itemID)
	}

	buckets, err := e.repo.AggregateBuckets(ctx, item.CompanyID, itemID, to, g)
	if err != nil {
		return Timeline{}, err
	}
	byPeriod := make(map[time.Time]Aggregate, len(buckets))
	for _, b := range buckets {
		byPeriod[bucketStart(b.PeriodStart, g)] = b.Aggregate
	}

	pool := position{
		qty:   item.OpeningBalance.Decimal(),
		value: item.OpeningValue.Decimal(),
	}

	tl := Timeline{
		ItemID:      item.ID,
		From:        bucketStart(from, g),
		To:          bucketStart(to, g),
		Granularity: g,
	}

	// Movements before the window still shape the pool; replay them without
	// emitting points.
	for _, b := range buckets {
		period := bucketStart(b.PeriodStart, g)
		if !period.Before(tl.From) {
			continue
		}
		applyBucket(&pool, b.Aggregate)
	}

	for period := tl.From; !period.After(tl.To); period = nextBucket(period, g) {
		agg := byPeriod[period] // zero value when the bucket had no movement
		applyBucket(&pool, agg)

		tl.Points = append(tl.Points, TimelinePoint{
			PeriodStart:  period,
			InwardQty:    agg.InwardQty,
			InwardValue:  agg.InwardValue.Decimal(),
			OutwardQty:   agg.OutwardQty,
			OutwardValue: agg.OutwardValue.Decimal().Abs(),
			ClosingQty:   types.NewQuantityFromInt64Scaled(pool.qty.Shift(4).Round(0).IntPart()),
			ClosingValue: pool.value.Round(2),
			AverageRate:  pool.avgRate().Round(2),
		})
	}

	return tl, nil
}

// applyBucket folds one period's movement into the pool: inward joins the
// pool at cost, outward leaves at the current average rate.
func applyBucket(p *position, agg Aggregate) {
	p.qty = p.qty.Add(agg.InwardQty.Decimal())
	p.value = p.value.Add(agg.InwardValue.Decimal())
	if agg.OutwardQty.IsPositive() {
		p.consume(agg.OutwardQty.Decimal())
	}
}

// bucketStart floors t to its bucket boundary in UTC.
func bucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	if g == GranularityMonthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextBucket(t time.Time, g Granularity) time.Time {
	if g == GranularityMonthly {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}
