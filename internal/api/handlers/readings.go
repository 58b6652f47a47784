package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// ReadingsHandler handles per-category reading requests.
type ReadingsHandler struct {
	Base
}

// NewReadingsHandler creates a new readings handler.
func NewReadingsHandler(svc *service.BillingService, logger *slog.Logger) *ReadingsHandler {
	return &ReadingsHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/readings/:category.
func (h *ReadingsHandler) List(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}

	readings, err := h.svc.ListReadings(c.Request.Context(), category)
	if err != nil {
		h.HandleError(c, "readings", err)
		return
	}
	if readings == nil {
		readings = []consumption.Reading{}
	}

	var total float64
	for _, r := range readings {
		total += r.Kwh
	}
	h.WriteJSON(c, http.StatusOK, dto.ReadingListResponse{
		Category: category,
		Readings: readings,
		Count:    len(readings),
		TotalKwh: total,
	})
}

// Upsert handles PUT /api/readings/:category.
func (h *ReadingsHandler) Upsert(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	var req dto.ReadingRequest
	if !h.Bind(c, &req) {
		return
	}

	reading, err := h.svc.UpsertReading(c.Request.Context(), category, req.ToReading())
	if err != nil {
		h.HandleError(c, "reading", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, reading)
}

// UpdateConsumption handles PATCH /api/readings/:category/:id.
func (h *ReadingsHandler) UpdateConsumption(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	var req dto.ConsumptionRequest
	if !h.Bind(c, &req) {
		return
	}

	reading, err := h.svc.UpdateConsumption(c.Request.Context(), category, c.Param("id"), *req.Kwh)
	if err != nil {
		h.HandleError(c, "reading", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, reading)
}

// Delete handles DELETE /api/readings/:category/:id.
func (h *ReadingsHandler) Delete(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteReading(c.Request.Context(), category, c.Param("id")); err != nil {
		h.HandleError(c, "reading", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset handles POST /api/readings/:category/reset. The optional group_id
// query parameter limits the reset to one group.
func (h *ReadingsHandler) Reset(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}

	groupID := c.Query("group_id")
	n, err := h.svc.ResetConsumption(c.Request.Context(), category, groupID)
	if err != nil {
		h.HandleError(c, "readings", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.ResetResponse{Category: category, GroupID: groupID, Reset: n})
}

// Generate handles POST /api/readings/:category/generate.
func (h *ReadingsHandler) Generate(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	var req dto.GenerateRequest
	if !h.Bind(c, &req) {
		return
	}

	created, err := h.svc.GenerateReadings(c.Request.Context(), category, service.GenerateRequest{
		GroupID:        req.GroupID,
		Count:          req.Count,
		SharedCounters: req.SharedCounters,
	})
	if err != nil {
		h.HandleError(c, "group", err)
		return
	}
	h.WriteJSON(c, http.StatusCreated, dto.ReadingListResponse{
		Category: category,
		Readings: created,
		Count:    len(created),
	})
}

// Grouped handles GET /api/readings/:category/grouped.
func (h *ReadingsHandler) Grouped(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}

	buckets, err := h.svc.GroupedReadings(c.Request.Context(), category)
	if err != nil {
		h.HandleError(c, "readings", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.NewGroupedResponse(category, buckets))
}
