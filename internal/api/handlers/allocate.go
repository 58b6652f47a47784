package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/domain/allocator"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// AllocateHandler runs the allocator on a posted reading list without
// touching the working set.
type AllocateHandler struct {
	Base
}

// NewAllocateHandler creates a new allocate handler.
func NewAllocateHandler(logger *slog.Logger) *AllocateHandler {
	return &AllocateHandler{Base: NewBase(nil, logger)}
}

// Post handles POST /api/allocate.
func (h *AllocateHandler) Post(c *gin.Context) {
	var req dto.AllocateRequest
	if !h.Bind(c, &req) {
		return
	}

	readings := make([]consumption.Reading, 0, len(req.Readings))
	for _, r := range req.Readings {
		readings = append(readings, r.ToReading())
	}

	allocated, err := allocator.Allocate(readings, *req.TotalAmount)
	if err != nil {
		h.HandleError(c, "allocation", err)
		return
	}

	sum := allocator.Summarize(allocated)
	h.WriteJSON(c, http.StatusOK, dto.AllocateResponse{
		Readings:        allocated,
		BaseKwh:         sum.BaseKwh,
		TotalCost:       sum.TotalCost,
		TotalPercentage: sum.TotalPercentage,
	})
}
