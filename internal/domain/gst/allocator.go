package gst

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
	"khata/internal/domain/masters"
	"khata/pkg/logger"
)

// LineInput is one inventory line to be taxed.
type LineInput struct {
	ItemID  id.ID
	HSNCode string
	Amount  types.MinorUnits
	GSTRate string
}

// AllocationInput carries everything the allocator needs for one voucher.
type AllocationInput struct {
	VoucherID     id.ID
	CompanyID     id.ID
	UserID        string
	VoucherType   string
	PartyLedger   string
	PlaceOfSupply string
	Lines         []LineInput
}

// Allocator attributes CGST/SGST/IGST per line using the state codes of the
// company and the party, then persists the breakdown.
type Allocator struct {
	companies masters.CompanyReader
	ledgers   masters.LedgerReader
	repo      Repository
}

// NewAllocator creates a GST allocator.
func NewAllocator(companies masters.CompanyReader, ledgers masters.LedgerReader, repo Repository) *Allocator {
	return &Allocator{
		companies: companies,
		ledgers:   ledgers,
		repo:      repo,
	}
}

// Allocate computes the tax split for every line and persists one VoucherGST
// record. Intra-state (equal state codes) splits into CGST+SGST halves;
// inter-state puts the whole amount into IGST.
func (a *Allocator) Allocate(ctx context.Context, in AllocationInput) (*VoucherGST, error) {
	company, err := a.companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}

	party, err := a.ledgers.GetByName(ctx, in.CompanyID, in.PartyLedger)
	if err != nil {
		return nil, err
	}

	if party.GSTIN == "" && strings.EqualFold(in.VoucherType, "Purchase") {
		return nil, apperror.NewMissingGSTIN(in.PartyLedger)
	}

	companyState := company.StateCode()
	partyState := party.StateCode()
	intraState := companyState != "" && companyState == partyState

	v := NewVoucherGST(in.VoucherID, in.CompanyID, in.UserID)
	v.PartyGSTIN = party.GSTIN
	v.PlaceOfSupply = in.PlaceOfSupply

	hundred := decimal.NewFromInt(100)
	for _, line := range in.Lines {
		rate, err := ResolveRate(line.GSTRate)
		if err != nil {
			return nil, err
		}

		taxable := line.Amount.Decimal()
		gstAmt := taxable.Mul(rate.IGST).Div(hundred)
		gstMinor := types.MinorUnits(gstAmt.Shift(2).Round(0).IntPart())

		detail := ItemDetail{
			ID:           id.New(),
			VoucherGSTID: v.ID,
			ItemID:       line.ItemID,
			HSNCode:      line.HSNCode,
			GSTRate:      line.GSTRate,
			TaxableValue: line.Amount,
		}

		if intraState {
			// Halve into CGST+SGST; SGST takes the remainder so the
			// two halves always sum to the full tax amount.
			detail.CGST = gstMinor / 2
			detail.SGST = gstMinor - detail.CGST
		} else {
			detail.IGST = gstMinor
		}
		detail.TotalAmount = line.Amount + gstMinor

		v.ItemDetails = append(v.ItemDetails, detail)
	}

	if err := a.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "gst allocated",
		"voucher_id", in.VoucherID,
		"intra_state", intraState,
		"lines", len(v.ItemDetails))

	return v, nil
}

// Reverse removes the breakdown persisted for a voucher.
func (a *Allocator) Reverse(ctx context.Context, voucherID id.ID) error {
	return a.repo.DeleteByVoucherID(ctx, voucherID)
}
