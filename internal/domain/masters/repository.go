package masters

import (
	"context"

	"khata/internal/core/id"
)

// LedgerReader looks up ledger masters.
type LedgerReader interface {
	// GetByID retrieves a ledger by id.
	GetByID(ctx context.Context, ledgerID id.ID) (Ledger, error)

	// GetByName retrieves a ledger by name within a company.
	GetByName(ctx context.Context, companyID id.ID, name string) (Ledger, error)
}

// StockItemReader looks up stock item masters.
type StockItemReader interface {
	// GetByID retrieves a stock item by id.
	GetByID(ctx context.Context, itemID id.ID) (StockItem, error)

	// ListByCompany retrieves all stock items of a company.
	ListByCompany(ctx context.Context, companyID id.ID) ([]StockItem, error)
}

// CompanyReader looks up companies.
type CompanyReader interface {
	// GetByID retrieves a company by id.
	GetByID(ctx context.Context, companyID id.ID) (Company, error)
}
