package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/sequence"
	"khata/internal/infrastructure/http/v1/dto"
)

// CounterHandler serves voucher number counter administration.
type CounterHandler struct {
	*BaseHandler
	sequencer *sequence.Sequencer
}

// NewCounterHandler creates a counter handler.
func NewCounterHandler(base *BaseHandler, sequencer *sequence.Sequencer) *CounterHandler {
	return &CounterHandler{BaseHandler: base, sequencer: sequencer}
}

type initCounterRequest struct {
	CompanyID      id.ID                   `json:"companyId"`
	VoucherType    string                  `json:"voucherType"`
	Prefix         string                  `json:"prefix"`
	Suffix         string                  `json:"suffix"`
	Separator      string                  `json:"separator"`
	PadLength      *int                    `json:"padLength"`
	StartingNumber *int64                  `json:"startingNumber"`
	ResetFrequency sequence.ResetFrequency `json:"resetFrequency"`
}

// Create handles POST /counters.
func (h *CounterHandler) Create(c *gin.Context) {
	var req initCounterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	counter := sequence.NewCounter(req.CompanyID, req.VoucherType)
	counter.UserID = h.GetUserID(c)
	counter.Prefix = req.Prefix
	counter.Suffix = req.Suffix
	if req.Separator != "" {
		counter.Separator = req.Separator
	}
	if req.PadLength != nil {
		counter.PadLength = *req.PadLength
	}
	if req.StartingNumber != nil {
		counter.StartingNumber = *req.StartingNumber
	}
	if req.ResetFrequency != "" {
		counter.ResetFrequency = req.ResetFrequency
	}

	if err := h.sequencer.Initialize(c.Request.Context(), counter); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, counter.ID.String())
}

// Get handles GET /counters/:voucherType.
func (h *CounterHandler) Get(c *gin.Context) {
	companyID, err := id.Parse(c.Query("companyId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("companyId is required").WithDetail("param", "companyId"))
		return
	}

	counter, err := h.sequencer.Get(c.Request.Context(), companyID, c.Param("voucherType"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, counter)
}

type reserveRequest struct {
	CompanyID   id.ID  `json:"companyId"`
	VoucherType string `json:"voucherType"`
}

// Reserve handles POST /counters/reserve. It consumes a number; callers that
// abandon it must create the voucher with the number or accept the gap.
func (h *CounterHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.sequencer.Reserve(c.Request.Context(), req.CompanyID, req.VoucherType, time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ReservationResponse{Value: res.Value, Formatted: res.Formatted})
}
