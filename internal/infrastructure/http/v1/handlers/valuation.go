package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/valuation"
)

// ValuationHandler serves the derived stock valuation endpoints.
type ValuationHandler struct {
	*BaseHandler
	engine *valuation.Engine
}

// NewValuationHandler creates a valuation handler.
func NewValuationHandler(base *BaseHandler, engine *valuation.Engine) *ValuationHandler {
	return &ValuationHandler{BaseHandler: base, engine: engine}
}

// GetItem handles GET /valuation/items/:itemId. The window is [from, to);
// an omitted from means all history, an omitted to means up to now.
func (h *ValuationHandler) GetItem(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	companyID := id.Nil()
	if cid := c.Query("companyId"); cid != "" {
		parsed, err := id.Parse(cid)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid companyId"))
			return
		}
		companyID = parsed
	}

	from, _ := h.parseTimeQuery(c, "from")
	to, hasTo := h.parseTimeQuery(c, "to")
	if !hasTo {
		to = time.Now().UTC()
	}

	result, err := h.engine.ItemValuation(c.Request.Context(), companyID, itemID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetItemTimeline handles GET /valuation/items/:itemId/timeline.
func (h *ValuationHandler) GetItemTimeline(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	companyID := id.Nil()
	if cid := c.Query("companyId"); cid != "" {
		parsed, err := id.Parse(cid)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid companyId"))
			return
		}
		companyID = parsed
	}

	from, hasFrom := h.parseTimeQuery(c, "from")
	to, hasTo := h.parseTimeQuery(c, "to")
	if !hasFrom || !hasTo {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}

	g := valuation.Granularity(c.DefaultQuery("granularity", string(valuation.GranularityDaily)))

	tl, err := h.engine.ItemTimeline(c.Request.Context(), companyID, itemID, from, to, g)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, tl)
}

// GetCompany handles GET /valuation/company/:companyId. Takes the same
// from/to window as the per-item endpoint.
func (h *ValuationHandler) GetCompany(c *gin.Context) {
	companyID, ok := h.ParseID(c, "companyId")
	if !ok {
		return
	}

	from, _ := h.parseTimeQuery(c, "from")
	to, hasTo := h.parseTimeQuery(c, "to")
	if !hasTo {
		to = time.Now().UTC()
	}

	result, err := h.engine.CompanyValuation(c.Request.Context(), companyID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
