// Package dto defines request and response shapes for the HTTP API.
package dto

// IDResponse is the standard create response.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is the standard acknowledgement response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VoucherCreatedResponse acknowledges a voucher create with the number the
// sequencer issued.
type VoucherCreatedResponse struct {
	ID            string `json:"id"`
	VoucherNumber string `json:"voucherNumber"`
}

// ReservationResponse is an explicitly reserved voucher number.
type ReservationResponse struct {
	Value     int64  `json:"value"`
	Formatted string `json:"formatted"`
}
