// Package masters provides read-only access to externally managed master data:
// ledgers, accounting groups, stock items and companies. The posting core
// consumes these records but never mutates them.
package masters

import (
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// Ledger is a chart-of-accounts account. The ledger/group set is managed
// outside this core; records here are read-only.
type Ledger struct {
	ID        id.ID  `db:"id" json:"id"`
	CompanyID id.ID  `db:"company_id" json:"companyId"`
	Name      string `db:"name" json:"name"`
	GroupName string `db:"group_name" json:"groupName,omitempty"`

	// GSTIN of the party behind this ledger, empty for non-party ledgers.
	GSTIN string `db:"gstin" json:"gstin,omitempty"`

	// MailingStateCode is the two-digit state code fallback used for
	// intra/inter-state classification when GSTIN is absent.
	MailingStateCode string `db:"mailing_state_code" json:"mailingStateCode,omitempty"`
}

// StateCode returns the two-digit state code for the ledger: the GSTIN prefix
// when present, otherwise the mailing state fallback.
func (l Ledger) StateCode() string {
	if len(l.GSTIN) >= 2 {
		return l.GSTIN[:2]
	}
	return l.MailingStateCode
}

// StockItem is an inventory item master. The opening triple seeds valuation.
type StockItem struct {
	ID        id.ID  `db:"id" json:"id"`
	CompanyID id.ID  `db:"company_id" json:"companyId"`
	Name      string `db:"name" json:"name"`
	Unit      string `db:"unit" json:"unit,omitempty"`
	HSNCode   string `db:"hsn_code" json:"hsnCode,omitempty"`
	GSTRate   string `db:"gst_rate" json:"gstRate,omitempty"`

	// Opening position as of the books' start date.
	OpeningBalance types.Quantity   `db:"opening_balance" json:"openingBalance"`
	OpeningRate    types.MinorUnits `db:"opening_rate" json:"openingRate"`
	OpeningValue   types.MinorUnits `db:"opening_value" json:"openingValue"`

	// LowStockAlert is the reorder threshold; zero disables the alert.
	LowStockAlert types.Quantity `db:"low_stock_alert" json:"lowStockAlert"`
}

// Company identifies a bookkeeping company (tax registration included).
type Company struct {
	ID    id.ID  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	GSTIN string `db:"gstin" json:"gstin,omitempty"`

	// State is the registered state code, used when GSTIN is absent.
	State string `db:"state" json:"state,omitempty"`
}

// StateCode returns the company's two-digit state code.
func (c Company) StateCode() string {
	if len(c.GSTIN) >= 2 {
		return c.GSTIN[:2]
	}
	return c.State
}
