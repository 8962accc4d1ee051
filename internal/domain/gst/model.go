package gst

import (
	"time"

	"khata/internal/core/id"
	"khata/internal/core/types"
)

// VoucherGST is the tax breakdown for one voucher. At most one per voucher;
// it owns its item details and cascade-deletes with the voucher.
type VoucherGST struct {
	ID              id.ID  `db:"id" json:"id"`
	VoucherID       id.ID  `db:"voucher_id" json:"voucherId"`
	CompanyID       id.ID  `db:"company_id" json:"companyId"`
	UserID          string `db:"user_id" json:"userId,omitempty"`
	IsGSTApplicable bool   `db:"is_gst_applicable" json:"isGstApplicable"`
	PlaceOfSupply   string `db:"place_of_supply" json:"placeOfSupply,omitempty"`
	PartyGSTIN      string `db:"party_gstin" json:"partyGstin,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	ItemDetails []ItemDetail `db:"-" json:"itemGstDetails"`
}

// ItemDetail is the tax split for one inventory line.
type ItemDetail struct {
	ID           id.ID            `db:"id" json:"id"`
	VoucherGSTID id.ID            `db:"voucher_gst_id" json:"-"`
	ItemID       id.ID            `db:"item_id" json:"itemId"`
	HSNCode      string           `db:"hsn_code" json:"hsnCode,omitempty"`
	GSTRate      string           `db:"gst_rate" json:"gstRate"`
	TaxableValue types.MinorUnits `db:"taxable_value" json:"taxableValue"`
	CGST         types.MinorUnits `db:"cgst" json:"cgst"`
	SGST         types.MinorUnits `db:"sgst" json:"sgst"`
	IGST         types.MinorUnits `db:"igst" json:"igst"`
	TotalAmount  types.MinorUnits `db:"total_amount" json:"totalAmount"`
}

// NewVoucherGST creates an empty breakdown for a voucher.
func NewVoucherGST(voucherID, companyID id.ID, userID string) *VoucherGST {
	return &VoucherGST{
		ID:              id.New(),
		VoucherID:       voucherID,
		CompanyID:       companyID,
		UserID:          userID,
		IsGSTApplicable: true,
		CreatedAt:       time.Now().UTC(),
	}
}
