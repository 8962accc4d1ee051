package gst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/masters"
)

type stubCompanyReader struct {
	company masters.Company
}

func (s *stubCompanyReader) GetByID(_ context.Context, _ id.ID) (masters.Company, error) {
	return s.company, nil
}

type stubLedgerReader struct {
	ledger masters.Ledger
}

func (s *stubLedgerReader) GetByID(_ context.Context, _ id.ID) (masters.Ledger, error) {
	return s.ledger, nil
}

func (s *stubLedgerReader) GetByName(_ context.Context, _ id.ID, _ string) (masters.Ledger, error) {
	return s.ledger, nil
}

type memGSTRepo struct {
	created *VoucherGST
	deleted []id.ID
}

func (m *memGSTRepo) Create(_ context.Context, v *VoucherGST) error {
	m.created = v
	return nil
}

func (m *memGSTRepo) GetByVoucherID(_ context.Context, voucherID id.ID) (*VoucherGST, error) {
	if m.created == nil || m.created.VoucherID != voucherID {
		return nil, apperror.NewNotFound("voucher_gst", voucherID.String())
	}
	return m.created, nil
}

func (m *memGSTRepo) DeleteByVoucherID(_ context.Context, voucherID id.ID) error {
	m.deleted = append(m.deleted, voucherID)
	m.created = nil
	return nil
}

func newTestAllocator(company masters.Company, party masters.Ledger) (*Allocator, *memGSTRepo) {
	repo := &memGSTRepo{}
	alloc := NewAllocator(
		&stubCompanyReader{company: company},
		&stubLedgerReader{ledger: party},
		repo,
	)
	return alloc, repo
}

func TestAllocate_IntraState(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Sharma Traders", GSTIN: "27BBBBB1111B1Z4"}
	alloc, repo := newTestAllocator(company, party)

	itemID := id.New()
	v, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: itemID, HSNCode: "7214", Amount: 10000_00, GSTRate: "18"},
		},
	})
	require.NoError(t, err)
	require.Len(t, v.ItemDetails, 1)

	d := v.ItemDetails[0]
	assert.EqualValues(t, 900_00, d.CGST)
	assert.EqualValues(t, 900_00, d.SGST)
	assert.EqualValues(t, 0, d.IGST)
	assert.EqualValues(t, 11800_00, d.TotalAmount)
	assert.Equal(t, "27BBBBB1111B1Z4", v.PartyGSTIN)
	require.NotNil(t, repo.created)
}

func TestAllocate_InterState(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Gupta Suppliers", GSTIN: "29CCCCC2222C1Z3"}
	alloc, _ := newTestAllocator(company, party)

	v, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: id.New(), Amount: 5000_00, GSTRate: "18"},
		},
	})
	require.NoError(t, err)
	require.Len(t, v.ItemDetails, 1)

	d := v.ItemDetails[0]
	assert.EqualValues(t, 0, d.CGST)
	assert.EqualValues(t, 0, d.SGST)
	assert.EqualValues(t, 900_00, d.IGST)
	assert.EqualValues(t, 5900_00, d.TotalAmount)
}

func TestAllocate_MailingStateFallback(t *testing.T) {
	// Party without GSTIN on a sales voucher: mailing state decides the split.
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Cash Customer", MailingStateCode: "27"}
	alloc, _ := newTestAllocator(company, party)

	v, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: id.New(), Amount: 1000_00, GSTRate: "9+9"},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 90_00, v.ItemDetails[0].CGST)
	assert.EqualValues(t, 90_00, v.ItemDetails[0].SGST)
}

func TestAllocate_PurchaseRequiresGSTIN(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Local Vendor", MailingStateCode: "27"}
	alloc, repo := newTestAllocator(company, party)

	_, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Purchase",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: id.New(), Amount: 1000_00, GSTRate: "18"},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeMissingGSTIN))
	assert.Nil(t, repo.created)
}

func TestAllocate_OddPaiseRemainderGoesToSGST(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Sharma Traders", GSTIN: "27BBBBB1111B1Z4"}
	alloc, _ := newTestAllocator(company, party)

	// 18% of 0.50 is 9 paise, which does not halve evenly.
	v, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: id.New(), Amount: 50, GSTRate: "18"},
		},
	})
	require.NoError(t, err)

	d := v.ItemDetails[0]
	assert.EqualValues(t, 4, d.CGST)
	assert.EqualValues(t, 5, d.SGST)
	assert.EqualValues(t, d.TaxableValue+d.CGST+d.SGST, d.TotalAmount)
}

func TestAllocate_InvalidRateFailsWholeVoucher(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Sharma Traders", GSTIN: "27BBBBB1111B1Z4"}
	alloc, repo := newTestAllocator(company, party)

	_, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   id.New(),
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines: []LineInput{
			{ItemID: id.New(), Amount: 1000_00, GSTRate: "18"},
			{ItemID: id.New(), Amount: 2000_00, GSTRate: "bogus"},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRateFormat))
	assert.Nil(t, repo.created)
}

func TestReverse(t *testing.T) {
	company := masters.Company{ID: id.New(), GSTIN: "27AAAAA0000A1Z5"}
	party := masters.Ledger{Name: "Sharma Traders", GSTIN: "27BBBBB1111B1Z4"}
	alloc, repo := newTestAllocator(company, party)

	voucherID := id.New()
	_, err := alloc.Allocate(context.Background(), AllocationInput{
		VoucherID:   voucherID,
		CompanyID:   company.ID,
		VoucherType: "Sales",
		PartyLedger: party.Name,
		Lines:       []LineInput{{ItemID: id.New(), Amount: 100_00, GSTRate: "18"}},
	})
	require.NoError(t, err)

	require.NoError(t, alloc.Reverse(context.Background(), voucherID))
	assert.Equal(t, []id.ID{voucherID}, repo.deleted)
}
