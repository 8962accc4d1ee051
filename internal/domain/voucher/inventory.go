package voucher

import (
	"context"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/pkg/logger"
)

// Recorder writes stock movements for a voucher. The sign convention is
// outward negative, inward positive; ApplySign derives it from the voucher
// type so callers always submit positive quantities.
type Recorder struct {
	repo InventoryRepository
}

// NewRecorder creates an inventory recorder backed by the given repository.
func NewRecorder(repo InventoryRepository) *Recorder {
	return &Recorder{repo: repo}
}

// ApplySign orients a quantity for the given voucher type. Sales move stock
// out, purchases move stock in. Orders carry their quantity as submitted
// since they have no valuation impact.
func ApplySign(vtype Type, entries []InventoryEntry) {
	if vtype != TypeSales {
		return
	}
	for i := range entries {
		if entries[i].Quantity.IsPositive() {
			entries[i].Quantity = entries[i].Quantity.Neg()
		}
	}
}

// Record validates and persists the inventory entries of a voucher.
func (r *Recorder) Record(ctx context.Context, voucherID id.ID, entries []InventoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if id.IsNil(entries[i].ItemID) {
			return apperror.NewValidation("inventory entry requires an item").
				WithDetail("index", i)
		}
		if id.IsNil(entries[i].ID) {
			entries[i].ID = id.New()
		}
		entries[i].VoucherID = voucherID
	}
	if err := r.repo.CreateBatch(ctx, entries); err != nil {
		return err
	}
	logger.Debug(ctx, "inventory entries recorded",
		"voucher_id", voucherID,
		"entries", len(entries))
	return nil
}

// Reverse removes all stock movements of a voucher.
func (r *Recorder) Reverse(ctx context.Context, voucherID id.ID) error {
	return r.repo.DeleteByVoucher(ctx, voucherID)
}
