package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
)

func TestType_Flags(t *testing.T) {
	tests := []struct {
		vtype      Type
		invoice    bool
		accounting bool
		inventory  bool
		order      bool
	}{
		{TypeSales, true, true, true, false},
		{TypePurchase, true, true, true, false},
		{TypePayment, false, true, false, false},
		{TypeReceipt, false, true, false, false},
		{TypeJournal, false, true, false, false},
		{TypeContra, false, true, false, false},
		{TypeOrder, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.vtype), func(t *testing.T) {
			assert.True(t, tt.vtype.Valid())
			assert.Equal(t, tt.invoice, tt.vtype.IsInvoice())
			assert.Equal(t, tt.accounting, tt.vtype.IsAccounting())
			assert.Equal(t, tt.inventory, tt.vtype.IsInventory())
			assert.Equal(t, tt.order, tt.vtype.IsOrder())
		})
	}

	assert.False(t, Type("DebitNote").Valid())
	assert.False(t, Type("").Valid())
}

func TestNewVoucher_DerivedFlags(t *testing.T) {
	v := NewVoucher(id.New(), "u1", TypeSales, time.Time{})

	assert.True(t, v.IsInvoice)
	assert.True(t, v.IsAccountingVoucher)
	assert.True(t, v.IsInventoryVoucher)
	assert.False(t, v.IsOrderVoucher)
	assert.False(t, v.Date.IsZero(), "zero date defaults to now")
	assert.False(t, id.IsNil(v.ID))
}

func TestVoucher_Validate(t *testing.T) {
	v := NewVoucher(id.New(), "u1", TypeJournal, time.Now())
	require.NoError(t, v.Validate())

	t.Run("missing company", func(t *testing.T) {
		bad := NewVoucher(id.Nil(), "u1", TypeJournal, time.Now())
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("unknown type", func(t *testing.T) {
		bad := NewVoucher(id.New(), "u1", Type("CreditNote"), time.Now())
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnknownVoucherType))
	})

	t.Run("zero date", func(t *testing.T) {
		bad := NewVoucher(id.New(), "u1", TypeJournal, time.Now())
		bad.Date = time.Time{}
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}
