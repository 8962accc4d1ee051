package gst

import (
	"context"

	"khata/internal/core/id"
)

// Repository persists voucher GST breakdowns.
type Repository interface {
	// Create inserts a breakdown with its item details.
	Create(ctx context.Context, v *VoucherGST) error

	// GetByVoucherID retrieves the breakdown for a voucher, with details.
	// Returns NOT_FOUND if the voucher has no GST record.
	GetByVoucherID(ctx context.Context, voucherID id.ID) (*VoucherGST, error)

	// DeleteByVoucherID removes the breakdown and its details.
	// Deleting a voucher without a breakdown is a no-op.
	DeleteByVoucherID(ctx context.Context, voucherID id.ID) error
}
