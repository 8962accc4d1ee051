package voucher

import (
	"context"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/sequence"
)

// In-memory doubles shared by the posting, inventory and service tests.

type memVoucherRepo struct {
	vouchers  map[id.ID]*Voucher
	createErr error
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{vouchers: make(map[id.ID]*Voucher)}
}

func (m *memVoucherRepo) Create(_ context.Context, v *Voucher) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.vouchers {
		if existing.CompanyID == v.CompanyID &&
			existing.VoucherType == v.VoucherType &&
			existing.VoucherNumber == v.VoucherNumber {
			return apperror.NewDuplicateVoucherNumber(v.VoucherNumber)
		}
	}
	cp := *v
	m.vouchers[v.ID] = &cp
	return nil
}

func (m *memVoucherRepo) GetByID(_ context.Context, voucherID id.ID) (*Voucher, error) {
	v, ok := m.vouchers[voucherID]
	if !ok || v.IsDeleted {
		return nil, apperror.NewNotFound("voucher", voucherID.String())
	}
	cp := *v
	return &cp, nil
}

func (m *memVoucherRepo) Update(_ context.Context, v *Voucher) error {
	if _, ok := m.vouchers[v.ID]; !ok {
		return apperror.NewNotFound("voucher", v.ID.String())
	}
	cp := *v
	m.vouchers[v.ID] = &cp
	return nil
}

func (m *memVoucherRepo) Delete(_ context.Context, voucherID id.ID) error {
	delete(m.vouchers, voucherID)
	return nil
}

func (m *memVoucherRepo) List(_ context.Context, filter ListFilter) (ListResult, error) {
	result := ListResult{Limit: filter.Limit, Offset: filter.Offset}
	for _, v := range m.vouchers {
		if v.CompanyID != filter.CompanyID {
			continue
		}
		if v.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		cp := *v
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type memAccountingRepo struct {
	entries  map[id.ID]AccountingEntry
	batchErr error
}

func newMemAccountingRepo() *memAccountingRepo {
	return &memAccountingRepo{entries: make(map[id.ID]AccountingEntry)}
}

func (m *memAccountingRepo) CreateBatch(_ context.Context, entries []AccountingEntry) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *memAccountingRepo) GetByVoucher(_ context.Context, voucherID id.ID) ([]AccountingEntry, error) {
	var out []AccountingEntry
	for _, e := range m.entries {
		if e.VoucherID == voucherID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memAccountingRepo) Update(_ context.Context, e AccountingEntry) error {
	if _, ok := m.entries[e.ID]; !ok {
		return apperror.NewNotFound("accounting entry", e.ID.String())
	}
	m.entries[e.ID] = e
	return nil
}

func (m *memAccountingRepo) Delete(_ context.Context, entryID id.ID) error {
	delete(m.entries, entryID)
	return nil
}

func (m *memAccountingRepo) DeleteByVoucher(_ context.Context, voucherID id.ID) error {
	for eid, e := range m.entries {
		if e.VoucherID == voucherID {
			delete(m.entries, eid)
		}
	}
	return nil
}

type memInventoryRepo struct {
	entries  map[id.ID]InventoryEntry
	batchErr error
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{entries: make(map[id.ID]InventoryEntry)}
}

func (m *memInventoryRepo) CreateBatch(_ context.Context, entries []InventoryEntry) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *memInventoryRepo) GetByVoucher(_ context.Context, voucherID id.ID) ([]InventoryEntry, error) {
	var out []InventoryEntry
	for _, e := range m.entries {
		if e.VoucherID == voucherID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memInventoryRepo) Update(_ context.Context, e InventoryEntry) error {
	if _, ok := m.entries[e.ID]; !ok {
		return apperror.NewNotFound("inventory entry", e.ID.String())
	}
	m.entries[e.ID] = e
	return nil
}

func (m *memInventoryRepo) Delete(_ context.Context, entryID id.ID) error {
	delete(m.entries, entryID)
	return nil
}

func (m *memInventoryRepo) DeleteByVoucher(_ context.Context, voucherID id.ID) error {
	for eid, e := range m.entries {
		if e.VoucherID == voucherID {
			delete(m.entries, eid)
		}
	}
	return nil
}

// memSeqRepo backs the sequencer in service tests.
type memSeqRepo struct {
	counter *sequence.Counter
}

func (m *memSeqRepo) Create(_ context.Context, c *sequence.Counter) error {
	if m.counter != nil {
		return apperror.NewConflict("counter already exists")
	}
	cp := *c
	m.counter = &cp
	return nil
}

func (m *memSeqRepo) Get(_ context.Context, _ id.ID, _ string) (*sequence.Counter, error) {
	if m.counter == nil {
		return nil, apperror.NewNotFound("voucher_counter", "")
	}
	cp := *m.counter
	return &cp, nil
}

func (m *memSeqRepo) Increment(_ context.Context, _ id.ID, _ string) (int64, error) {
	if m.counter == nil {
		return 0, apperror.NewNotFound("voucher_counter", "")
	}
	m.counter.CurrentNumber++
	return m.counter.CurrentNumber, nil
}

func (m *memSeqRepo) Decrement(_ context.Context, _ id.ID, _ string) (int64, error) {
	if m.counter == nil {
		return 0, apperror.NewNotFound("voucher_counter", "")
	}
	if m.counter.CurrentNumber > m.counter.StartingNumber {
		m.counter.CurrentNumber--
	}
	return m.counter.CurrentNumber, nil
}

func (m *memSeqRepo) Reset(_ context.Context, _ id.ID, _ string, boundary, _ time.Time) error {
	if m.counter == nil {
		return apperror.NewNotFound("voucher_counter", "")
	}
	if m.counter.LastReset.Before(boundary) {
		m.counter.CurrentNumber = m.counter.StartingNumber
		m.counter.LastReset = boundary
	}
	return nil
}

// noopTxManager satisfies tx.Manager without a database.
type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingAudit captures audit calls.
type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) Log(_ context.Context, _ id.ID, action string, _ map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}
