package voucher

import (
	"context"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/tx"
	"khata/internal/core/types"
	"khata/internal/domain/gst"
	"khata/internal/domain/sequence"
	"khata/pkg/logger"
)

// AccountingLineInput is one submitted ledger posting. A zero ID means a new
// entry; updates carry the id of the entry they replace.
type AccountingLineInput struct {
	ID       id.ID            `json:"id,omitempty"`
	Ledger   string           `json:"ledger"`
	LedgerID id.ID            `json:"ledgerId,omitempty"`
	Amount   types.MinorUnits `json:"amount"`
}

// InventoryLineInput is one submitted stock movement line. HSNCode and
// GSTRate feed the tax allocator and are not stored on the entry itself.
type InventoryLineInput struct {
	ID               id.ID            `json:"id,omitempty"`
	Item             string           `json:"item"`
	ItemID           id.ID            `json:"itemId"`
	Quantity         types.Quantity   `json:"quantity"`
	Rate             types.MinorUnits `json:"rate"`
	Amount           types.MinorUnits `json:"amount"`
	AdditionalAmount types.MinorUnits `json:"additionalAmount,omitempty"`
	DiscountAmount   types.MinorUnits `json:"discountAmount,omitempty"`
	Godown           string           `json:"godown,omitempty"`
	GodownID         id.ID            `json:"godownId,omitempty"`
	OrderNumber      string           `json:"orderNumber,omitempty"`
	OrderDueDate     *time.Time       `json:"orderDueDate,omitempty"`
	HSNCode          string           `json:"hsnCode,omitempty"`
	GSTRate          string           `json:"gstRate,omitempty"`
}

// CreateInput carries everything needed to record a voucher.
type CreateInput struct {
	CompanyID   id.ID  `json:"companyId"`
	UserID      string `json:"userId,omitempty"`
	VoucherType Type   `json:"voucherType"`

	Date          time.Time `json:"date"`
	VoucherNumber string    `json:"voucherNumber,omitempty"`

	PartyName   string `json:"partyName,omitempty"`
	PartyNameID id.ID  `json:"partyNameId,omitempty"`

	Narration       string     `json:"narration,omitempty"`
	ReferenceNumber string     `json:"referenceNumber,omitempty"`
	ReferenceDate   *time.Time `json:"referenceDate,omitempty"`

	PlaceOfSupply   string     `json:"placeOfSupply,omitempty"`
	VehicleNumber   string     `json:"vehicleNumber,omitempty"`
	ModeOfTransport string     `json:"modeOfTransport,omitempty"`
	Status          string     `json:"status,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`

	IsGSTApplicable bool `json:"isGstApplicable,omitempty"`

	AccountingEntries []AccountingLineInput `json:"accountingEntries,omitempty"`
	InventoryEntries  []InventoryLineInput  `json:"inventoryEntries,omitempty"`
}

// UpdateCommand is the allow-listed set of mutable voucher fields. Nil means
// leave unchanged. Company, voucher type and voucher number are immutable
// after creation. Submitting an entries slice replaces the owned set through
// id-based reconciliation; submitting nil leaves the entries untouched.
type UpdateCommand struct {
	Date            *time.Time `json:"date,omitempty"`
	PartyName       *string    `json:"partyName,omitempty"`
	PartyNameID     *id.ID     `json:"partyNameId,omitempty"`
	Narration       *string    `json:"narration,omitempty"`
	ReferenceNumber *string    `json:"referenceNumber,omitempty"`
	ReferenceDate   *time.Time `json:"referenceDate,omitempty"`
	PlaceOfSupply   *string    `json:"placeOfSupply,omitempty"`
	VehicleNumber   *string    `json:"vehicleNumber,omitempty"`
	ModeOfTransport *string    `json:"modeOfTransport,omitempty"`
	Status          *string    `json:"status,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`

	AccountingEntries *[]AccountingLineInput `json:"accountingEntries,omitempty"`
	InventoryEntries  *[]InventoryLineInput  `json:"inventoryEntries,omitempty"`
}

// Service orchestrates voucher writes across the posting engine, the
// inventory recorder, the tax allocator and the number sequencer.
type Service struct {
	vouchers  Repository
	poster    *Poster
	recorder  *Recorder
	allocator *gst.Allocator
	sequencer *sequence.Sequencer
	txm       tx.Manager
	audit     AuditLogger
}

// NewService creates the voucher orchestrator. audit may be nil.
func NewService(
	vouchers Repository,
	poster *Poster,
	recorder *Recorder,
	allocator *gst.Allocator,
	sequencer *sequence.Sequencer,
	txm tx.Manager,
	audit AuditLogger,
) *Service {
	return &Service{
		vouchers:  vouchers,
		poster:    poster,
		recorder:  recorder,
		allocator: allocator,
		sequencer: sequencer,
		txm:       txm,
		audit:     audit,
	}
}

// Create records a voucher with its postings, stock movements and tax split.
//
// The writes run as a compensation saga rather than one database transaction:
// the voucher number lives in the sequencer and must be released on failure
// even when the database itself is what failed. Validation that needs no
// database happens first, so invalid requests never consume a number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Voucher, error) {
	v := NewVoucher(in.CompanyID, in.UserID, in.VoucherType, in.Date)
	v.VoucherNumber = in.VoucherNumber
	v.PartyName = in.PartyName
	v.PartyNameID = in.PartyNameID
	v.Narration = in.Narration
	v.ReferenceNumber = in.ReferenceNumber
	v.ReferenceDate = in.ReferenceDate
	v.PlaceOfSupply = in.PlaceOfSupply
	v.VehicleNumber = in.VehicleNumber
	v.ModeOfTransport = in.ModeOfTransport
	v.Status = in.Status
	v.DueDate = in.DueDate

	if err := v.Validate(); err != nil {
		return nil, err
	}

	accounting := toAccountingEntries(v.ID, in.AccountingEntries)
	if v.IsAccountingVoucher {
		if err := ValidateBalanced(accounting); err != nil {
			return nil, err
		}
	} else if len(accounting) > 0 {
		return nil, apperror.NewValidation("order vouchers cannot carry accounting entries")
	}

	inventory := toInventoryEntries(v.ID, in.InventoryEntries)
	if !v.IsInventoryVoucher && len(inventory) > 0 {
		return nil, apperror.NewValidation("this voucher type cannot carry inventory entries").
			WithDetail("voucherType", string(v.VoucherType))
	}
	ApplySign(v.VoucherType, inventory)

	reserved := false
	if v.VoucherNumber == "" && s.sequencer != nil {
		res, err := s.sequencer.Reserve(ctx, v.CompanyID, string(v.VoucherType), time.Now().UTC())
		if err != nil {
			return nil, err
		}
		v.VoucherNumber = res.Formatted
		reserved = true
	}

	steps := []Step{
		{
			Name: "create_voucher",
			Run: func(ctx context.Context) error {
				return s.vouchers.Create(ctx, v)
			},
			Compensate: func(ctx context.Context) error {
				return s.vouchers.Delete(ctx, v.ID)
			},
		},
	}
	if len(accounting) > 0 {
		steps = append(steps, Step{
			Name: "post_accounting",
			Run: func(ctx context.Context) error {
				return s.poster.Post(ctx, v.ID, accounting)
			},
			Compensate: func(ctx context.Context) error {
				return s.poster.Reverse(ctx, v.ID)
			},
		})
	}
	if len(inventory) > 0 {
		steps = append(steps, Step{
			Name: "record_inventory",
			Run: func(ctx context.Context) error {
				return s.recorder.Record(ctx, v.ID, inventory)
			},
			Compensate: func(ctx context.Context) error {
				return s.recorder.Reverse(ctx, v.ID)
			},
		})
	}
	if v.IsInvoice && in.IsGSTApplicable && s.allocator != nil {
		steps = append(steps, Step{
			Name: "allocate_gst",
			Run: func(ctx context.Context) error {
				_, err := s.allocator.Allocate(ctx, gstInput(v, in.UserID, in.InventoryEntries))
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.allocator.Reverse(ctx, v.ID)
			},
		})
	}

	if err := runSaga(ctx, steps); err != nil {
		if reserved {
			if rerr := s.sequencer.Release(ctx, v.CompanyID, string(v.VoucherType)); rerr != nil {
				logger.Warn(ctx, "voucher number release failed",
					"company_id", v.CompanyID,
					"voucher_type", v.VoucherType,
					"error", rerr)
			}
		}
		return nil, err
	}

	v.AccountingEntries = accounting
	v.InventoryEntries = inventory

	s.logAudit(ctx, v.ID, "create", map[string]any{
		"voucher_number": v.VoucherNumber,
		"voucher_type":   v.VoucherType,
	})
	logger.Info(ctx, "voucher created",
		"voucher_id", v.ID,
		"voucher_number", v.VoucherNumber,
		"voucher_type", v.VoucherType)
	return v, nil
}

// GetByID returns a voucher with its owned entries loaded.
func (s *Service) GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	v, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if v.AccountingEntries, err = s.poster.repo.GetByVoucher(ctx, voucherID); err != nil {
		return nil, err
	}
	if v.InventoryEntries, err = s.recorder.repo.GetByVoucher(ctx, voucherID); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns vouchers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.vouchers.List(ctx, filter)
}

// Update applies an allow-listed header change and reconciles submitted
// entries against stored ones by id: matched ids are updated in place, ids
// absent from the submission are deleted, lines without an id are inserted.
// The whole reconciliation runs in one database transaction.
func (s *Service) Update(ctx context.Context, voucherID id.ID, cmd UpdateCommand) (*Voucher, error) {
	v, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	changes := applyCommand(v, cmd)

	if cmd.AccountingEntries != nil {
		if !v.IsAccountingVoucher && len(*cmd.AccountingEntries) > 0 {
			return nil, apperror.NewValidation("order vouchers cannot carry accounting entries")
		}
		desired := toAccountingEntries(v.ID, *cmd.AccountingEntries)
		if err := ValidateBalanced(desired); err != nil {
			return nil, err
		}
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if len(changes) > 0 {
			v.Touch()
			if err := s.vouchers.Update(ctx, v); err != nil {
				return err
			}
		}
		if cmd.AccountingEntries != nil {
			if err := s.reconcileAccounting(ctx, v, *cmd.AccountingEntries); err != nil {
				return err
			}
		}
		if cmd.InventoryEntries != nil {
			if err := s.reconcileInventory(ctx, v, *cmd.InventoryEntries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, v.ID, "update", changes)
	logger.Info(ctx, "voucher updated", "voucher_id", v.ID, "changed_fields", len(changes))
	return s.GetByID(ctx, voucherID)
}

// Delete soft-deletes a voucher. Owned rows stay in place for the audit
// trail; the valuation replay and all listings exclude deleted vouchers.
func (s *Service) Delete(ctx context.Context, voucherID id.ID) error {
	v, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return err
	}

	v.IsDeleted = true
	v.Touch()
	if err := s.vouchers.Update(ctx, v); err != nil {
		return err
	}

	s.logAudit(ctx, v.ID, "delete", map[string]any{
		"voucher_number": v.VoucherNumber,
	})
	logger.Info(ctx, "voucher deleted",
		"voucher_id", v.ID,
		"voucher_number", v.VoucherNumber)
	return nil
}

func (s *Service) reconcileAccounting(ctx context.Context, v *Voucher, lines []AccountingLineInput) error {
	existing, err := s.poster.repo.GetByVoucher(ctx, v.ID)
	if err != nil {
		return err
	}
	current := make(map[id.ID]AccountingEntry, len(existing))
	for _, e := range existing {
		current[e.ID] = e
	}

	var inserts []AccountingEntry
	submitted := make(map[id.ID]bool, len(lines))
	for _, line := range lines {
		e := AccountingEntry{
			ID:        line.ID,
			VoucherID: v.ID,
			Ledger:    line.Ledger,
			LedgerID:  line.LedgerID,
			Amount:    line.Amount,
		}
		if id.IsNil(line.ID) {
			e.ID = id.New()
			inserts = append(inserts, e)
			continue
		}
		if _, ok := current[line.ID]; !ok {
			return apperror.NewNotFound("accounting entry", line.ID)
		}
		submitted[line.ID] = true
		if err := s.poster.repo.Update(ctx, e); err != nil {
			return err
		}
	}

	for _, e := range existing {
		if !submitted[e.ID] {
			if err := s.poster.repo.Delete(ctx, e.ID); err != nil {
				return err
			}
		}
	}
	if len(inserts) > 0 {
		if err := s.poster.repo.CreateBatch(ctx, inserts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reconcileInventory(ctx context.Context, v *Voucher, lines []InventoryLineInput) error {
	existing, err := s.recorder.repo.GetByVoucher(ctx, v.ID)
	if err != nil {
		return err
	}
	current := make(map[id.ID]InventoryEntry, len(existing))
	for _, e := range existing {
		current[e.ID] = e
	}

	desired := toInventoryEntries(v.ID, lines)
	ApplySign(v.VoucherType, desired)

	var inserts []InventoryEntry
	submitted := make(map[id.ID]bool, len(desired))
	for _, e := range desired {
		if id.IsNil(e.ID) {
			e.ID = id.New()
			inserts = append(inserts, e)
			continue
		}
		if _, ok := current[e.ID]; !ok {
			return apperror.NewNotFound("inventory entry", e.ID)
		}
		submitted[e.ID] = true
		if err := s.recorder.repo.Update(ctx, e); err != nil {
			return err
		}
	}

	for _, e := range existing {
		if !submitted[e.ID] {
			if err := s.recorder.repo.Delete(ctx, e.ID); err != nil {
				return err
			}
		}
	}
	if len(inserts) > 0 {
		if err := s.recorder.repo.CreateBatch(ctx, inserts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, voucherID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, voucherID, action, changes); err != nil {
		logger.Warn(ctx, "audit log write failed",
			"voucher_id", voucherID,
			"action", action,
			"error", err)
	}
}

// applyCommand copies allow-listed fields onto the voucher and returns the
// names of the fields that actually changed, for the audit trail.
func applyCommand(v *Voucher, cmd UpdateCommand) map[string]any {
	changes := make(map[string]any)

	if cmd.Date != nil && !cmd.Date.Equal(v.Date) {
		v.Date = *cmd.Date
		changes["date"] = cmd.Date
	}
	if cmd.PartyName != nil && *cmd.PartyName != v.PartyName {
		v.PartyName = *cmd.PartyName
		changes["party_name"] = *cmd.PartyName
	}
	if cmd.PartyNameID != nil && *cmd.PartyNameID != v.PartyNameID {
		v.PartyNameID = *cmd.PartyNameID
		changes["party_name_id"] = *cmd.PartyNameID
	}
	if cmd.Narration != nil && *cmd.Narration != v.Narration {
		v.Narration = *cmd.Narration
		changes["narration"] = *cmd.Narration
	}
	if cmd.ReferenceNumber != nil && *cmd.ReferenceNumber != v.ReferenceNumber {
		v.ReferenceNumber = *cmd.ReferenceNumber
		changes["reference_number"] = *cmd.ReferenceNumber
	}
	if cmd.ReferenceDate != nil {
		v.ReferenceDate = cmd.ReferenceDate
		changes["reference_date"] = cmd.ReferenceDate
	}
	if cmd.PlaceOfSupply != nil && *cmd.PlaceOfSupply != v.PlaceOfSupply {
		v.PlaceOfSupply = *cmd.PlaceOfSupply
		changes["place_of_supply"] = *cmd.PlaceOfSupply
	}
	if cmd.VehicleNumber != nil && *cmd.VehicleNumber != v.VehicleNumber {
		v.VehicleNumber = *cmd.VehicleNumber
		changes["vehicle_number"] = *cmd.VehicleNumber
	}
	if cmd.ModeOfTransport != nil && *cmd.ModeOfTransport != v.ModeOfTransport {
		v.ModeOfTransport = *cmd.ModeOfTransport
		changes["mode_of_transport"] = *cmd.ModeOfTransport
	}
	if cmd.Status != nil && *cmd.Status != v.Status {
		v.Status = *cmd.Status
		changes["status"] = *cmd.Status
	}
	if cmd.DueDate != nil {
		v.DueDate = cmd.DueDate
		changes["due_date"] = cmd.DueDate
	}

	if cmd.AccountingEntries != nil {
		changes["accounting_entries"] = len(*cmd.AccountingEntries)
	}
	if cmd.InventoryEntries != nil {
		changes["inventory_entries"] = len(*cmd.InventoryEntries)
	}
	return changes
}

func toAccountingEntries(voucherID id.ID, lines []AccountingLineInput) []AccountingEntry {
	if len(lines) == 0 {
		return nil
	}
	entries := make([]AccountingEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, AccountingEntry{
			ID:        l.ID,
			VoucherID: voucherID,
			Ledger:    l.Ledger,
			LedgerID:  l.LedgerID,
			Amount:    l.Amount,
		})
	}
	return entries
}

func toInventoryEntries(voucherID id.ID, lines []InventoryLineInput) []InventoryEntry {
	if len(lines) == 0 {
		return nil
	}
	entries := make([]InventoryEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, InventoryEntry{
			ID:               l.ID,
			VoucherID:        voucherID,
			Item:             l.Item,
			ItemID:           l.ItemID,
			Quantity:         l.Quantity,
			Rate:             l.Rate,
			Amount:           l.Amount,
			AdditionalAmount: l.AdditionalAmount,
			DiscountAmount:   l.DiscountAmount,
			Godown:           l.Godown,
			GodownID:         l.GodownID,
			OrderNumber:      l.OrderNumber,
			OrderDueDate:     l.OrderDueDate,
		})
	}
	return entries
}

func gstInput(v *Voucher, userID string, lines []InventoryLineInput) gst.AllocationInput {
	in := gst.AllocationInput{
		VoucherID:     v.ID,
		CompanyID:     v.CompanyID,
		UserID:        userID,
		VoucherType:   string(v.VoucherType),
		PartyLedger:   v.PartyName,
		PlaceOfSupply: v.PlaceOfSupply,
	}
	for _, l := range lines {
		if l.GSTRate == "" {
			continue
		}
		in.Lines = append(in.Lines, gst.LineInput{
			ItemID:  l.ItemID,
			HSNCode: l.HSNCode,
			Amount:  l.Amount,
			GSTRate: l.GSTRate,
		})
	}
	return in
}
