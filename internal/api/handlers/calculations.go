package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/history"
)

// CalculationsHandler runs and serves stored calculations.
type CalculationsHandler struct {
	Base
}

// NewCalculationsHandler creates a new calculations handler.
func NewCalculationsHandler(svc *service.BillingService, logger *slog.Logger) *CalculationsHandler {
	return &CalculationsHandler{Base: NewBase(svc, logger)}
}

// Create handles POST /api/calculations.
func (h *CalculationsHandler) Create(c *gin.Context) {
	result, err := h.svc.Calculate(c.Request.Context())
	if err != nil {
		h.HandleError(c, "calculation", err)
		return
	}
	h.WriteJSON(c, http.StatusCreated, result)
}

// List handles GET /api/calculations.
// Query params: limit (default 50, 0 for all)
func (h *CalculationsHandler) List(c *gin.Context) {
	limit := ParseIntParam(c, "limit", 50)
	if limit < 0 {
		limit = 50
	}

	results, err := h.svc.ListResults(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, "calculations", err)
		return
	}

	summaries := make([]dto.CalculationSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, dto.NewCalculationSummary(r))
	}
	h.WriteJSON(c, http.StatusOK, dto.CalculationListResponse{Calculations: summaries, Count: len(summaries)})
}

// Get handles GET /api/calculations/:id.
func (h *CalculationsHandler) Get(c *gin.Context) {
	result, err := h.svc.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, "calculation", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, result)
}

// Delete handles DELETE /api/calculations/:id.
func (h *CalculationsHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, "calculation", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Monthly handles GET /api/calculations/monthly.
func (h *CalculationsHandler) Monthly(c *gin.Context) {
	months, err := h.svc.Monthly(c.Request.Context())
	if err != nil {
		h.HandleError(c, "calculations", err)
		return
	}
	if months == nil {
		months = []history.MonthlySummary{}
	}
	h.WriteJSON(c, http.StatusOK, dto.MonthlyResponse{Months: months})
}
