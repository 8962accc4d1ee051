package sequence

import (
	"context"
	"time"

	"khata/internal/core/id"
	"khata/pkg/logger"
)

// Reservation is an issued voucher number. Value is kept so a failed create
// can release exactly what it reserved.
type Reservation struct {
	Value     int64  `json:"value"`
	Formatted string `json:"formatted"`
}

// Sequencer issues and releases voucher numbers.
type Sequencer struct {
	repo Repository
}

// NewSequencer creates a sequencer backed by the given repository.
func NewSequencer(repo Repository) *Sequencer {
	return &Sequencer{repo: repo}
}

// Initialize creates the counter for a (company, voucher type) pair.
func (s *Sequencer) Initialize(ctx context.Context, c *Counter) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.CurrentNumber = c.StartingNumber
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	logger.Info(ctx, "voucher counter initialized",
		"company_id", c.CompanyID,
		"voucher_type", c.VoucherType,
		"prefix", c.Prefix)
	return nil
}

// Get returns the counter for inspection.
func (s *Sequencer) Get(ctx context.Context, companyID id.ID, voucherType string) (*Counter, error) {
	return s.repo.Get(ctx, companyID, voucherType)
}

// Reserve issues the next number: it applies a pending periodic reset if one
// is due, then atomically increments the counter and formats the result.
func (s *Sequencer) Reserve(ctx context.Context, companyID id.ID, voucherType string, now time.Time) (Reservation, error) {
	counter, err := s.repo.Get(ctx, companyID, voucherType)
	if err != nil {
		return Reservation{}, err
	}

	if counter.NeedsReset(now) {
		boundary := periodStart(now, counter.ResetFrequency)
		if err := s.repo.Reset(ctx, companyID, voucherType, boundary, now); err != nil {
			return Reservation{}, err
		}
		logger.Info(ctx, "voucher counter reset",
			"company_id", companyID,
			"voucher_type", voucherType,
			"boundary", boundary)
	}

	value, err := s.repo.Increment(ctx, companyID, voucherType)
	if err != nil {
		return Reservation{}, err
	}

	return Reservation{Value: value, Formatted: counter.Format(value)}, nil
}

// Release returns a reserved number after a failed create. The counter never
// goes below starting_number.
func (s *Sequencer) Release(ctx context.Context, companyID id.ID, voucherType string) error {
	_, err := s.repo.Decrement(ctx, companyID, voucherType)
	return err
}
