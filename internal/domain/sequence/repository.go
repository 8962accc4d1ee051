package sequence

import (
	"context"
	"time"

	"khata/internal/core/id"
)

// Repository persists counters. Increment and Decrement MUST be single atomic
// storage operations (UPDATE ... RETURNING), never read-modify-write, so that
// concurrent reservations for the same (company, type) cannot duplicate.
type Repository interface {
	// Create inserts a new counter. Fails with CONFLICT if one already
	// exists for the (company, voucher type) pair.
	Create(ctx context.Context, c *Counter) error

	// Get retrieves the counter for a (company, voucher type) pair.
	Get(ctx context.Context, companyID id.ID, voucherType string) (*Counter, error)

	// Increment atomically bumps current_number and returns the new value.
	Increment(ctx context.Context, companyID id.ID, voucherType string) (int64, error)

	// Decrement atomically lowers current_number, clamped at
	// starting_number, and returns the new value.
	Decrement(ctx context.Context, companyID id.ID, voucherType string) (int64, error)

	// Reset rewinds current_number to starting_number and stamps
	// last_reset, guarded so only one concurrent caller wins: the update
	// applies only while last_reset is still before the boundary.
	Reset(ctx context.Context, companyID id.ID, voucherType string, boundary, now time.Time) error
}
