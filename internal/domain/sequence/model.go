// Package sequence issues gap-minimizing, human-readable voucher numbers.
// One counter exists per (company, voucher type); the increment itself is a
// single atomic storage operation so concurrent creations never collide.
package sequence

import (
	"fmt"
	"strings"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
)

// ResetFrequency controls when current_number rewinds to starting_number.
type ResetFrequency string

const (
	ResetNever   ResetFrequency = "never"
	ResetYearly  ResetFrequency = "yearly"
	ResetMonthly ResetFrequency = "monthly"
	ResetDaily   ResetFrequency = "daily"
)

// Valid reports whether f is a known frequency.
func (f ResetFrequency) Valid() bool {
	switch f {
	case ResetNever, ResetYearly, ResetMonthly, ResetDaily:
		return true
	}
	return false
}

// Counter is the numbering state for one (company, voucher type) pair.
// Invariant: CurrentNumber >= StartingNumber, monotonic except on reset.
type Counter struct {
	ID        id.ID  `db:"id" json:"id"`
	CompanyID id.ID  `db:"company_id" json:"companyId"`
	UserID    string `db:"user_id" json:"userId,omitempty"`

	VoucherType string `db:"voucher_type" json:"voucherType"`

	Prefix    string `db:"prefix" json:"prefix"`
	Suffix    string `db:"suffix" json:"suffix"`
	Separator string `db:"separator" json:"separator"`
	PadLength int    `db:"pad_length" json:"padLength"`

	StartingNumber int64 `db:"starting_number" json:"startingNumber"`
	CurrentNumber  int64 `db:"current_number" json:"currentNumber"`

	ResetFrequency ResetFrequency `db:"reset_frequency" json:"resetFrequency"`
	LastReset      time.Time      `db:"last_reset" json:"lastReset"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCounter creates an unstarted counter.
func NewCounter(companyID id.ID, voucherType string) *Counter {
	now := time.Now().UTC()
	return &Counter{
		ID:             id.New(),
		CompanyID:      companyID,
		VoucherType:    voucherType,
		Separator:      "-",
		PadLength:      4,
		StartingNumber: 0,
		CurrentNumber:  0,
		ResetFrequency: ResetNever,
		LastReset:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks counter invariants.
func (c *Counter) Validate() error {
	if id.IsNil(c.CompanyID) {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	if c.VoucherType == "" {
		return apperror.NewValidation("voucher type is required").WithDetail("field", "voucherType")
	}
	if c.PadLength < 0 {
		return apperror.NewValidation("pad length must not be negative").WithDetail("field", "padLength")
	}
	if c.StartingNumber < 0 {
		return apperror.NewValidation("starting number must not be negative").WithDetail("field", "startingNumber")
	}
	if !c.ResetFrequency.Valid() {
		return apperror.NewValidation("unknown reset frequency").WithDetail("field", "resetFrequency")
	}
	return nil
}

// Format renders a sequence value as the human-readable voucher number:
// {prefix}{sep}{padded}{sep}{suffix}. The suffix segment, including its
// separator, is omitted when the suffix is empty.
func (c *Counter) Format(value int64) string {
	padded := fmt.Sprintf("%0*d", c.PadLength, value)

	var b strings.Builder
	if c.Prefix != "" {
		b.WriteString(c.Prefix)
		b.WriteString(c.Separator)
	}
	b.WriteString(padded)
	if c.Suffix != "" {
		b.WriteString(c.Separator)
		b.WriteString(c.Suffix)
	}
	return b.String()
}

// periodStart floors t to the boundary of the reset period. Month and year
// floors use day 1, which sidesteps Feb-29/day-31 arithmetic entirely.
func periodStart(t time.Time, f ResetFrequency) time.Time {
	t = t.UTC()
	switch f {
	case ResetYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case ResetMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case ResetDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// NeedsReset reports whether now has crossed a reset boundary since the last
// reset. Counters with frequency "never" are never reset.
func (c *Counter) NeedsReset(now time.Time) bool {
	if c.ResetFrequency == ResetNever {
		return false
	}
	return periodStart(now, c.ResetFrequency).After(periodStart(c.LastReset, c.ResetFrequency))
}
