// Package handlers provides HTTP request handlers.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"khata/internal/core/apperror"
	appctx "khata/internal/core/context"
	"khata/internal/core/id"
	"khata/internal/domain/gst"
	"khata/internal/domain/voucher"
	"khata/internal/infrastructure/http/v1/dto"
	"khata/internal/infrastructure/storage/postgres"
)

// VoucherHandler serves the voucher write and read endpoints.
type VoucherHandler struct {
	*BaseHandler
	service *voucher.Service
	gstRepo gst.Repository
	audit   *postgres.AuditStore
}

// NewVoucherHandler creates a voucher handler.
func NewVoucherHandler(base *BaseHandler, service *voucher.Service, gstRepo gst.Repository, audit *postgres.AuditStore) *VoucherHandler {
	return &VoucherHandler{
		BaseHandler: base,
		service:     service,
		gstRepo:     gstRepo,
		audit:       audit,
	}
}

// Create handles POST /vouchers.
func (h *VoucherHandler) Create(c *gin.Context) {
	var in voucher.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}
	if in.UserID == "" {
		in.UserID = h.GetUserID(c)
	}
	if id.IsNil(in.CompanyID) {
		if companyID, err := id.Parse(appctx.GetCompanyID(c.Request.Context())); err == nil {
			in.CompanyID = companyID
		}
	}

	v, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.VoucherCreatedResponse{
		ID:            v.ID.String(),
		VoucherNumber: v.VoucherNumber,
	})
}

// Get handles GET /vouchers/:id.
func (h *VoucherHandler) Get(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// List handles GET /vouchers.
func (h *VoucherHandler) List(c *gin.Context) {
	companyID, err := id.Parse(c.Query("companyId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("companyId is required").WithDetail("param", "companyId"))
		return
	}

	filter := voucher.ListFilter{
		CompanyID: companyID,
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}
	if vt := c.Query("voucherType"); vt != "" {
		t := voucher.Type(vt)
		if !t.Valid() {
			h.Error(c, &apperror.AppError{
				Code:       apperror.CodeUnknownVoucherType,
				Message:    "Unknown voucher type",
				HTTPStatus: 400,
				Details:    map[string]any{"voucherType": vt},
			})
			return
		}
		filter.VoucherType = &t
	}
	if party := c.Query("partyNameId"); party != "" {
		partyID, err := id.Parse(party)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid partyNameId"))
			return
		}
		filter.PartyNameID = &partyID
	}
	if from, ok := h.parseTimeQuery(c, "from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := h.parseTimeQuery(c, "to"); ok {
		filter.DateTo = &to
	}
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Update handles PUT /vouchers/:id.
func (h *VoucherHandler) Update(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var cmd voucher.UpdateCommand
	if !h.BindJSON(c, &cmd) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), voucherID, cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Delete handles DELETE /vouchers/:id. Deletion is soft: the voucher and its
// accounting, inventory and tax rows are retained for the audit trail, but
// the voucher reads back as not found and stops contributing to listings and
// valuation.
func (h *VoucherHandler) Delete(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), voucherID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// GetGST handles GET /vouchers/:id/gst.
func (h *VoucherHandler) GetGST(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	breakdown, err := h.gstRepo.GetByVoucherID(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, breakdown)
}

// GetAudit handles GET /vouchers/:id/audit.
func (h *VoucherHandler) GetAudit(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 100)
	entries, err := h.audit.GetVoucherHistory(c.Request.Context(), voucherID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// parseTimeQuery accepts RFC3339 timestamps and bare dates.
func (h *BaseHandler) parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
