package voucher

import (
	"context"

	"khata/internal/core/id"
)

// Repository persists vouchers.
type Repository interface {
	// Create inserts a voucher. A duplicate (company, type, number) fails
	// with DUPLICATE_VOUCHER_NUMBER and must never be swallowed.
	Create(ctx context.Context, v *Voucher) error

	// GetByID retrieves a voucher (without owned rows).
	// Soft-deleted vouchers return NOT_FOUND.
	GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// Update writes the voucher header fields.
	Update(ctx context.Context, v *Voucher) error

	// Delete removes the voucher row. Owned rows are deleted first by the
	// orchestrator (accounting, inventory, GST).
	Delete(ctx context.Context, voucherID id.ID) error

	// List retrieves vouchers with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (ListResult, error)
}

// AccountingRepository persists accounting entries.
type AccountingRepository interface {
	// CreateBatch inserts entries for one voucher.
	CreateBatch(ctx context.Context, entries []AccountingEntry) error

	// GetByVoucher retrieves all entries of a voucher.
	GetByVoucher(ctx context.Context, voucherID id.ID) ([]AccountingEntry, error)

	// Update rewrites one entry in place (same id).
	Update(ctx context.Context, e AccountingEntry) error

	// Delete removes one entry.
	Delete(ctx context.Context, entryID id.ID) error

	// DeleteByVoucher removes all entries of a voucher.
	DeleteByVoucher(ctx context.Context, voucherID id.ID) error
}

// InventoryRepository persists inventory entries.
type InventoryRepository interface {
	// CreateBatch inserts entries for one voucher.
	CreateBatch(ctx context.Context, entries []InventoryEntry) error

	// GetByVoucher retrieves all entries of a voucher.
	GetByVoucher(ctx context.Context, voucherID id.ID) ([]InventoryEntry, error)

	// Update rewrites one entry in place (same id).
	Update(ctx context.Context, e InventoryEntry) error

	// Delete removes one entry.
	Delete(ctx context.Context, entryID id.ID) error

	// DeleteByVoucher removes all entries of a voucher.
	DeleteByVoucher(ctx context.Context, voucherID id.ID) error
}

// AuditLogger records voucher mutations for the audit trail. Implemented by
// the postgres audit store; a nil logger disables auditing.
type AuditLogger interface {
	Log(ctx context.Context, voucherID id.ID, action string, changes map[string]any) error
}
