package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// ThresholdsHandler handles consumption limit requests.
type ThresholdsHandler struct {
	Base
}

// NewThresholdsHandler creates a new thresholds handler.
func NewThresholdsHandler(svc *service.BillingService, logger *slog.Logger) *ThresholdsHandler {
	return &ThresholdsHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/thresholds.
func (h *ThresholdsHandler) List(c *gin.Context) {
	thresholds, err := h.svc.ListThresholds(c.Request.Context())
	if err != nil {
		h.HandleError(c, "thresholds", err)
		return
	}
	if thresholds == nil {
		thresholds = []threshold.Threshold{}
	}
	h.WriteJSON(c, http.StatusOK, dto.ThresholdListResponse{Thresholds: thresholds, Count: len(thresholds)})
}

// Put handles PUT /api/thresholds.
func (h *ThresholdsHandler) Put(c *gin.Context) {
	var req dto.ThresholdRequest
	if !h.Bind(c, &req) {
		return
	}

	t := req.ToThreshold()
	if err := h.svc.SetThreshold(c.Request.Context(), t); err != nil {
		h.HandleError(c, "threshold", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, t)
}

// Alerts handles GET /api/thresholds/alerts.
func (h *ThresholdsHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.CheckThresholds(c.Request.Context())
	if err != nil {
		h.HandleError(c, "alerts", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.AlertListResponse{Alerts: alerts, Count: len(alerts)})
}
