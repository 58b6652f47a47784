package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// RegistryHandler handles office registry requests.
type RegistryHandler struct {
	Base
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(svc *service.BillingService, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/registry with an optional ?category filter.
func (h *RegistryHandler) List(c *gin.Context) {
	category := consumption.Category(c.Query("category"))
	registries, err := h.svc.ListRegistries(c.Request.Context(), category)
	if err != nil {
		h.HandleError(c, "registry", err)
		return
	}
	if registries == nil {
		registries = []consumption.OfficeRegistry{}
	}
	h.WriteJSON(c, http.StatusOK, dto.RegistryListResponse{Registries: registries, Count: len(registries)})
}

// Put handles PUT /api/registry.
func (h *RegistryHandler) Put(c *gin.Context) {
	var req dto.RegistryRequest
	if !h.Bind(c, &req) {
		return
	}

	entry, err := h.svc.UpsertRegistry(c.Request.Context(), req.ToRegistry())
	if err != nil {
		h.HandleError(c, "registry", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, entry)
}

// Get handles GET /api/registry/:id.
func (h *RegistryHandler) Get(c *gin.Context) {
	entry, err := h.svc.GetRegistry(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, "registry", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, entry)
}

// Delete handles DELETE /api/registry/:id.
func (h *RegistryHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteRegistry(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, "registry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CompanyName handles GET /api/registry/name/:category/:reading_id.
func (h *RegistryHandler) CompanyName(c *gin.Context) {
	category, ok := h.Category(c)
	if !ok {
		return
	}
	readingID := c.Param("reading_id")

	name, err := h.svc.CompanyName(c.Request.Context(), category, readingID)
	if err != nil {
		h.HandleError(c, "registry", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.CompanyNameResponse{
		Category:    category,
		ReadingID:   readingID,
		CompanyName: name,
	})
}

// CompanyHandler handles the company info record.
type CompanyHandler struct {
	Base
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(svc *service.BillingService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{Base: NewBase(svc, logger)}
}

// Get handles GET /api/company.
func (h *CompanyHandler) Get(c *gin.Context) {
	info, err := h.svc.GetCompanyInfo(c.Request.Context())
	if err != nil {
		h.HandleError(c, "company info", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, info)
}

// Put handles PUT /api/company.
func (h *CompanyHandler) Put(c *gin.Context) {
	var req dto.CompanyRequest
	if !h.Bind(c, &req) {
		return
	}

	info, err := h.svc.SetCompanyInfo(c.Request.Context(), req.ToCompanyInfo())
	if err != nil {
		h.HandleError(c, "company info", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, info)
}
