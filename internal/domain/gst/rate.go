// Package gst implements GST rate resolution and the per-voucher tax split.
package gst

import (
	"strings"

	"github.com/shopspring/decimal"

	"khata/internal/core/apperror"
)

// Rate holds the resolved tax percentages for one rate expression.
// For intra-state supplies the tax splits into CGST+SGST; inter-state
// supplies use IGST. IGST always equals CGST+SGST.
type Rate struct {
	CGST decimal.Decimal `json:"cgst"`
	SGST decimal.Decimal `json:"sgst"`
	IGST decimal.Decimal `json:"igst"`
}

// ResolveRate parses a rate expression into percentages.
// Accepted forms:
//
//	"18"      -> cgst 9, sgst 9, igst 18
//	"9+9"     -> cgst 9, sgst 9, igst 18
//	"2.5+2.5" -> cgst 2.5, sgst 2.5, igst 5
//
// Anything else fails with INVALID_RATE_FORMAT.
func ResolveRate(expr string) (Rate, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Rate{}, apperror.NewInvalidRateFormat(expr)
	}

	if c, sg, ok := strings.Cut(s, "+"); ok {
		cgst, err := decimal.NewFromString(strings.TrimSpace(c))
		if err != nil {
			return Rate{}, apperror.NewInvalidRateFormat(expr)
		}
		sgst, err := decimal.NewFromString(strings.TrimSpace(sg))
		if err != nil {
			return Rate{}, apperror.NewInvalidRateFormat(expr)
		}
		if cgst.IsNegative() || sgst.IsNegative() {
			return Rate{}, apperror.NewInvalidRateFormat(expr)
		}
		return Rate{CGST: cgst, SGST: sgst, IGST: cgst.Add(sgst)}, nil
	}

	igst, err := decimal.NewFromString(s)
	if err != nil || igst.IsNegative() {
		return Rate{}, apperror.NewInvalidRateFormat(expr)
	}
	half := igst.Div(decimal.NewFromInt(2))
	return Rate{CGST: half, SGST: half, IGST: igst}, nil
}
