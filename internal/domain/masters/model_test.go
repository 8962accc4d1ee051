package masters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_StateCode(t *testing.T) {
	assert.Equal(t, "27", Ledger{GSTIN: "27BBBBB1111B1Z4"}.StateCode())
	assert.Equal(t, "29", Ledger{GSTIN: "29CCCCC2222C1Z3", MailingStateCode: "27"}.StateCode(),
		"GSTIN wins over the mailing fallback")
	assert.Equal(t, "27", Ledger{MailingStateCode: "27"}.StateCode())
	assert.Equal(t, "", Ledger{}.StateCode())
}

func TestCompany_StateCode(t *testing.T) {
	assert.Equal(t, "27", Company{GSTIN: "27AAAAA0000A1Z5"}.StateCode())
	assert.Equal(t, "29", Company{State: "29"}.StateCode())
}
