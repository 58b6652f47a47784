package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// GroupsHandler handles group requests.
type GroupsHandler struct {
	Base
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(svc *service.BillingService, logger *slog.Logger) *GroupsHandler {
	return &GroupsHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/groups.
func (h *GroupsHandler) List(c *gin.Context) {
	groups, err := h.svc.ListGroups(c.Request.Context())
	if err != nil {
		h.HandleError(c, "groups", err)
		return
	}
	if groups == nil {
		groups = []consumption.Group{}
	}
	h.WriteJSON(c, http.StatusOK, dto.GroupListResponse{Groups: groups, Count: len(groups)})
}

// Create handles POST /api/groups.
func (h *GroupsHandler) Create(c *gin.Context) {
	var req dto.GroupRequest
	if !h.Bind(c, &req) {
		return
	}

	group, err := h.svc.AddGroup(c.Request.Context(), req.ToGroup(""))
	if err != nil {
		h.HandleError(c, "group", err)
		return
	}
	h.WriteJSON(c, http.StatusCreated, group)
}

// Update handles PUT /api/groups/:id.
func (h *GroupsHandler) Update(c *gin.Context) {
	var req dto.GroupRequest
	if !h.Bind(c, &req) {
		return
	}

	group := req.ToGroup(c.Param("id"))
	if err := h.svc.UpdateGroup(c.Request.Context(), group); err != nil {
		h.HandleError(c, "group", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, group)
}

// Delete handles DELETE /api/groups/:id.
func (h *GroupsHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, "group", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Rollup handles GET /api/groups/:id/rollup?category=.
func (h *GroupsHandler) Rollup(c *gin.Context) {
	category, err := consumption.ParseCategory(c.Query("category"))
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	id := c.Param("id")
	totals, err := h.svc.Rollup(c.Request.Context(), category, id)
	if err != nil {
		h.HandleError(c, "group", err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.RollupResponse{GroupID: id, Category: category, Totals: totals})
}
