package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// CategoriesHandler lists the supported categories with display labels.
type CategoriesHandler struct {
	labels map[string]string
}

// NewCategoriesHandler creates a categories handler. Categories missing from
// labels are shown by ID.
func NewCategoriesHandler(labels map[string]string) *CategoriesHandler {
	return &CategoriesHandler{labels: labels}
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(c *gin.Context) {
	out := make([]dto.CategoryResponse, 0, len(consumption.Categories))
	for _, cat := range consumption.Categories {
		label := h.labels[string(cat)]
		if label == "" {
			label = string(cat)
		}
		out = append(out, dto.CategoryResponse{ID: cat, Label: label})
	}
	c.JSON(http.StatusOK, out)
}
