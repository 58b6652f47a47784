package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
)

// BillsHandler handles bill requests.
type BillsHandler struct {
	Base
}

// NewBillsHandler creates a new bills handler.
func NewBillsHandler(svc *service.BillingService, logger *slog.Logger) *BillsHandler {
	return &BillsHandler{Base: NewBase(svc, logger)}
}

// Get handles GET /api/bills/:category.
func (h *BillsHandler) Get(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}

	bill, err := h.svc.GetBill(c.Request.Context(), category)
	if err != nil {
		h.HandleError(c, "bill", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, bill)
}

// Put handles PUT /api/bills/:category.
func (h *BillsHandler) Put(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	var req dto.BillRequest
	if !h.Bind(c, &req) {
		return
	}

	bill := req.ToBill()
	if err := h.svc.SetBill(c.Request.Context(), category, bill); err != nil {
		h.HandleError(c, "bill", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, bill)
}
