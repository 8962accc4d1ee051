package voucher

import (
	"context"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/pkg/logger"
)

// Poster writes ledger postings for a voucher. Every batch must balance:
// debits are positive, credits negative, and the sum must be exactly zero in
// minor units. An unbalanced batch is rejected before anything is written.
type Poster struct {
	repo AccountingRepository
}

// NewPoster creates a posting engine backed by the given repository.
func NewPoster(repo AccountingRepository) *Poster {
	return &Poster{repo: repo}
}

// ValidateBalanced checks the zero-sum invariant over a set of entries.
// The sum is exact because amounts are integers in minor units.
func ValidateBalanced(entries []AccountingEntry) error {
	var sum int64
	for _, e := range entries {
		sum += int64(e.Amount)
	}
	if sum != 0 {
		return apperror.NewUnbalancedEntries(sum)
	}
	return nil
}

// Post validates and persists the accounting entries of a voucher. Entry ids
// are assigned here; the caller only supplies ledger and amount.
func (p *Poster) Post(ctx context.Context, voucherID id.ID, entries []AccountingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ValidateBalanced(entries); err != nil {
		return err
	}
	for i := range entries {
		if id.IsNil(entries[i].ID) {
			entries[i].ID = id.New()
		}
		entries[i].VoucherID = voucherID
	}
	if err := p.repo.CreateBatch(ctx, entries); err != nil {
		return err
	}
	logger.Debug(ctx, "accounting entries posted",
		"voucher_id", voucherID,
		"entries", len(entries))
	return nil
}

// Reverse removes all postings of a voucher.
func (p *Poster) Reverse(ctx context.Context, voucherID id.ID) error {
	return p.repo.DeleteByVoucher(ctx, voucherID)
}
