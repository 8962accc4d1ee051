package gst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
)

func TestResolveRate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		wantCGST string
		wantSGST string
		wantIGST string
	}{
		{"single number halves", "18", "9", "9", "18"},
		{"explicit split", "9+9", "9", "9", "18"},
		{"fractional split", "2.5+2.5", "2.5", "2.5", "5"},
		{"uneven split", "6+3", "6", "3", "9"},
		{"odd single number", "5", "2.5", "2.5", "5"},
		{"zero rate", "0", "0", "0", "0"},
		{"whitespace tolerated", " 12 ", "6", "6", "12"},
		{"split with spaces", "9 + 9", "9", "9", "18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ResolveRate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCGST, rate.CGST.String())
			assert.Equal(t, tt.wantSGST, rate.SGST.String())
			assert.Equal(t, tt.wantIGST, rate.IGST.String())
		})
	}
}

func TestResolveRate_Invalid(t *testing.T) {
	exprs := []string{"", "abc", "-18", "9+-9", "-2.5+2.5", "9+", "+9", "18%"}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := ResolveRate(expr)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRateFormat),
				"expected INVALID_RATE_FORMAT, got %v", err)
		})
	}
}

func TestResolveRate_IGSTEqualsSum(t *testing.T) {
	for _, expr := range []string{"18", "9+9", "2.5+2.5", "14+14", "0.25+0.25"} {
		rate, err := ResolveRate(expr)
		require.NoError(t, err)
		assert.True(t, rate.IGST.Equal(rate.CGST.Add(rate.SGST)),
			"IGST must equal CGST+SGST for %q", expr)
	}
}
