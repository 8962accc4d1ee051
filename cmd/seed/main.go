// Package main provides a CLI tool for seeding the database with demo
// master data: a company, party ledgers, stock items and voucher counters.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
	"khata/internal/domain/sequence"
	"khata/internal/domain/voucher"
	"khata/internal/infrastructure/storage/postgres"
	"khata/internal/infrastructure/storage/postgres/sequence_repo"
	"khata/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	companyID, err := seedCompany(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed company", "error", err)
	}

	if err := seedLedgers(ctx, pool, log, companyID); err != nil {
		log.Fatalw("failed to seed ledgers", "error", err)
	}

	if err := seedStockItems(ctx, pool, log, companyID); err != nil {
		log.Fatalw("failed to seed stock items", "error", err)
	}

	if err := seedCounters(ctx, pool, log, companyID); err != nil {
		log.Fatalw("failed to seed counters", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedCompany(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	name := os.Getenv("SEED_COMPANY_NAME")
	if name == "" {
		name = "Demo Trading Co"
	}
	gstin := os.Getenv("SEED_COMPANY_GSTIN")
	if gstin == "" {
		gstin = "27AAAAA0000A1Z5"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM companies WHERE name = $1`, name,
	).Scan(&existingID)
	if err == nil {
		log.Infow("company already exists", "name", name, "company_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check company exists: %w", err)
	}

	companyID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO companies (id, name, gstin, state)
		VALUES ($1, $2, $3, $4)
	`, companyID, name, gstin, gstin[:2])
	if err != nil {
		return id.Nil(), fmt.Errorf("insert company: %w", err)
	}

	log.Infow("company created", "name", name, "company_id", companyID)
	return companyID, nil
}

func seedLedgers(ctx context.Context, pool *postgres.Pool, log *logger.Logger, companyID id.ID) error {
	ledgers := []struct {
		name      string
		group     string
		gstin     string
		stateCode string
	}{
		{"Cash", "Cash-in-Hand", "", "27"},
		{"Sales Account", "Sales Accounts", "", "27"},
		{"Purchase Account", "Purchase Accounts", "", "27"},
		{"CGST Payable", "Duties & Taxes", "", "27"},
		{"SGST Payable", "Duties & Taxes", "", "27"},
		{"IGST Payable", "Duties & Taxes", "", "27"},
		{"Sharma Traders", "Sundry Debtors", "27BBBBB1111B1Z4", ""},
		{"Gupta Suppliers", "Sundry Creditors", "29CCCCC2222C1Z3", ""},
	}

	for _, l := range ledgers {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO ledgers (id, company_id, name, group_name, gstin, mailing_state_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING
		`, id.New(), companyID, l.name, l.group, l.gstin, l.stateCode)
		if err != nil {
			return fmt.Errorf("insert ledger %s: %w", l.name, err)
		}
	}

	log.Infow("ledgers seeded", "count", len(ledgers))
	return nil
}

func seedStockItems(ctx context.Context, pool *postgres.Pool, log *logger.Logger, companyID id.ID) error {
	items := []struct {
		name    string
		unit    string
		hsn     string
		rate    string
		opening types.Quantity
		openVal types.MinorUnits
		alert   types.Quantity
	}{
		{"Steel Rod 12mm", "kg", "7214", "9+9", types.NewQuantityFromFloat64(100), 5000_00, types.NewQuantityFromFloat64(20)},
		{"Copper Wire", "m", "7408", "18", types.NewQuantityFromFloat64(500), 12500_00, types.NewQuantityFromFloat64(50)},
		{"PVC Pipe 2in", "pcs", "3917", "18", 0, 0, types.NewQuantityFromFloat64(10)},
	}

	for _, item := range items {
		var openingRate types.MinorUnits
		if item.opening.IsPositive() {
			openingRate = types.MinorUnits(item.openVal.Decimal().
				Div(item.opening.Decimal()).Shift(2).Round(0).IntPart())
		}
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO stock_items (
				id, company_id, name, unit, hsn_code, gst_rate,
				opening_balance, opening_rate, opening_value, low_stock_alert
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT DO NOTHING
		`, id.New(), companyID, item.name, item.unit, item.hsn, item.rate,
			item.opening, openingRate, item.openVal, item.alert)
		if err != nil {
			return fmt.Errorf("insert stock item %s: %w", item.name, err)
		}
	}

	log.Infow("stock items seeded", "count", len(items))
	return nil
}

func seedCounters(ctx context.Context, pool *postgres.Pool, log *logger.Logger, companyID id.ID) error {
	txManager := postgres.NewTxManager(pool)
	sequencer := sequence.NewSequencer(sequence_repo.NewCounterRepo(txManager))

	prefixes := map[voucher.Type]string{
		voucher.TypeSales:    "INV",
		voucher.TypePurchase: "PUR",
		voucher.TypePayment:  "PAY",
		voucher.TypeReceipt:  "RCT",
		voucher.TypeJournal:  "JRN",
		voucher.TypeContra:   "CTR",
		voucher.TypeOrder:    "ORD",
	}

	for _, vtype := range voucher.KnownTypes {
		counter := sequence.NewCounter(companyID, string(vtype))
		counter.Prefix = prefixes[vtype]
		counter.ResetFrequency = sequence.ResetYearly

		err := sequencer.Initialize(ctx, counter)
		if err != nil {
			if apperror.IsCode(err, apperror.CodeConflict) {
				log.Infow("counter already exists", "voucher_type", vtype)
				continue
			}
			return fmt.Errorf("initialize counter %s: %w", vtype, err)
		}
	}

	log.Info("counters seeded")
	return nil
}
