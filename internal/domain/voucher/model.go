// Package voucher implements the voucher write path: the voucher model, the
// ledger posting engine, the inventory movement recorder and the create/
// update/delete orchestrator with its compensation saga.
package voucher

import (
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// Type enumerates the supported voucher types.
type Type string

const (
	TypeSales    Type = "Sales"
	TypePurchase Type = "Purchase"
	TypePayment  Type = "Payment"
	TypeReceipt  Type = "Receipt"
	TypeJournal  Type = "Journal"
	TypeContra   Type = "Contra"
	TypeOrder    Type = "Order"
)

// KnownTypes lists every valid voucher type.
var KnownTypes = []Type{
	TypeSales, TypePurchase, TypePayment, TypeReceipt,
	TypeJournal, TypeContra, TypeOrder,
}

// Valid reports whether t is a known voucher type.
func (t Type) Valid() bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsInvoice reports whether vouchers of this type are tax invoices.
func (t Type) IsInvoice() bool { return t == TypeSales || t == TypePurchase }

// IsAccounting reports whether this type carries ledger postings.
func (t Type) IsAccounting() bool { return t != TypeOrder }

// IsInventory reports whether this type carries stock movements.
func (t Type) IsInventory() bool {
	return t == TypeSales || t == TypePurchase || t == TypeOrder
}

// IsOrder reports whether this type is an order (no ledger impact).
func (t Type) IsOrder() bool { return t == TypeOrder }

// Voucher is one recorded transaction. Its accounting entries, inventory
// entries and GST breakdown are owned rows that cascade-delete with it.
type Voucher struct {
	ID        id.ID  `db:"id" json:"id"`
	CompanyID id.ID  `db:"company_id" json:"companyId"`
	UserID    string `db:"user_id" json:"userId,omitempty"`

	Date          time.Time `db:"date" json:"date"`
	VoucherNumber string    `db:"voucher_number" json:"voucherNumber"`
	VoucherType   Type      `db:"voucher_type" json:"voucherType"`
	VoucherTypeID id.ID     `db:"voucher_type_id" json:"voucherTypeId,omitempty"`

	PartyName   string `db:"party_name" json:"partyName,omitempty"`
	PartyNameID id.ID  `db:"party_name_id" json:"partyNameId,omitempty"`

	Narration       string     `db:"narration" json:"narration,omitempty"`
	ReferenceNumber string     `db:"reference_number" json:"referenceNumber,omitempty"`
	ReferenceDate   *time.Time `db:"reference_date" json:"referenceDate,omitempty"`

	PlaceOfSupply   string     `db:"place_of_supply" json:"placeOfSupply,omitempty"`
	VehicleNumber   string     `db:"vehicle_number" json:"vehicleNumber,omitempty"`
	ModeOfTransport string     `db:"mode_of_transport" json:"modeOfTransport,omitempty"`
	Status          string     `db:"status" json:"status,omitempty"`
	DueDate         *time.Time `db:"due_date" json:"dueDate,omitempty"`

	// Derived flags, fixed by voucher type at creation.
	IsInvoice           bool `db:"is_invoice" json:"isInvoice"`
	IsAccountingVoucher bool `db:"is_accounting_voucher" json:"isAccountingVoucher"`
	IsInventoryVoucher  bool `db:"is_inventory_voucher" json:"isInventoryVoucher"`
	IsOrderVoucher      bool `db:"is_order_voucher" json:"isOrderVoucher"`

	IsDeleted bool `db:"is_deleted" json:"isDeleted"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Owned rows, loaded on demand.
	AccountingEntries []AccountingEntry `db:"-" json:"accountingEntries,omitempty"`
	InventoryEntries  []InventoryEntry  `db:"-" json:"inventoryEntries,omitempty"`
}

// NewVoucher creates a voucher with derived flags set from its type.
func NewVoucher(companyID id.ID, userID string, vtype Type, date time.Time) *Voucher {
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	return &Voucher{
		ID:                  id.New(),
		CompanyID:           companyID,
		UserID:              userID,
		Date:                date,
		VoucherType:         vtype,
		IsInvoice:           vtype.IsInvoice(),
		IsAccountingVoucher: vtype.IsAccounting(),
		IsInventoryVoucher:  vtype.IsInventory(),
		IsOrderVoucher:      vtype.IsOrder(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Validate checks voucher invariants (no database access).
func (v *Voucher) Validate() error {
	if id.IsNil(v.CompanyID) {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	if v.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if !v.VoucherType.Valid() {
		return &apperror.AppError{
			Code:       apperror.CodeUnknownVoucherType,
			Message:    "Unknown voucher type",
			HTTPStatus: 400,
			Details:    map[string]any{"voucherType": string(v.VoucherType)},
		}
	}
	return nil
}

// Touch updates the modification timestamp.
func (v *Voucher) Touch() {
	v.UpdatedAt = time.Now().UTC()
}

// AccountingEntry is one ledger movement owned by exactly one voucher.
// Positive amounts are debits, negative amounts are credits.
type AccountingEntry struct {
	ID        id.ID            `db:"id" json:"id"`
	VoucherID id.ID            `db:"voucher_id" json:"voucherId"`
	Ledger    string           `db:"ledger" json:"ledger"`
	LedgerID  id.ID            `db:"ledger_id" json:"ledgerId,omitempty"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// InventoryEntry is one stock movement owned by exactly one voucher.
// Negative quantity is outward, positive is inward; the caller decides the
// sign from the voucher type.
type InventoryEntry struct {
	ID        id.ID `db:"id" json:"id"`
	VoucherID id.ID `db:"voucher_id" json:"voucherId"`

	Item   string `db:"item" json:"item"`
	ItemID id.ID  `db:"item_id" json:"itemId"`

	Quantity types.Quantity   `db:"quantity" json:"quantity"`
	Rate     types.MinorUnits `db:"rate" json:"rate"`
	Amount   types.MinorUnits `db:"amount" json:"amount"`

	AdditionalAmount types.MinorUnits `db:"additional_amount" json:"additionalAmount,omitempty"`
	DiscountAmount   types.MinorUnits `db:"discount_amount" json:"discountAmount,omitempty"`

	Godown   string `db:"godown" json:"godown,omitempty"`
	GodownID id.ID  `db:"godown_id" json:"godownId,omitempty"`

	OrderNumber  string     `db:"order_number" json:"orderNumber,omitempty"`
	OrderDueDate *time.Time `db:"order_due_date" json:"orderDueDate,omitempty"`
}

// ListFilter narrows voucher listings.
type ListFilter struct {
	CompanyID      id.ID
	VoucherType    *Type
	PartyNameID    *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool

	Limit  int
	Offset int
}

// ListResult is a paginated voucher listing.
type ListResult struct {
	Items      []*Voucher `json:"items"`
	TotalCount int64      `json:"totalCount"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}
