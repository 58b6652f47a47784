package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *service.BillingService
	logger *slog.Logger
}

// NewBase creates a new base handler backed by the billing service.
func NewBase(svc *service.BillingService, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}
	return Base{svc: svc, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code and stops
// the handler chain.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// HandleError maps a service error onto a response. Invalid input is a 400,
// a missing record is a 404 and everything else is logged and hidden behind
// a 500.
func (b *Base) HandleError(c *gin.Context, resource string, err error) {
	switch {
	case errors.Is(err, consumption.ErrInvalidInput):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(resource))
	default:
		b.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// Bind decodes the JSON body into req. On failure it writes the error
// response and returns false.
func (b *Base) Bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apiErr := dto.BindingError(err)
		b.WriteError(c, http.StatusBadRequest, apiErr)
		return false
	}
	return true
}

// Category reads the :category path parameter. On failure it writes a 400
// and returns false.
func (b *Base) Category(c *gin.Context) (consumption.Category, bool) {
	category, err := consumption.ParseCategory(c.Param("category"))
	if err != nil {
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return "", false
	}
	return category, true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
