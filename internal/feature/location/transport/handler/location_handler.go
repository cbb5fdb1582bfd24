// Package handler provides the location endpoints that are not plain CRUD.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/platform/http/httperr"
)

// LocationUsecase lists states and cities.
type LocationUsecase interface {
	StateOptions(ctx context.Context) ([]entity.StateOption, error)
	CitiesOfState(ctx context.Context, stateID uint) ([]entity.City, error)
}

// LocationHandler serves selection lists.
type LocationHandler struct {
	uc LocationUsecase
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(uc LocationUsecase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// StateOptions handles GET /states/options.
func (h *LocationHandler) StateOptions(c *gin.Context) {
	opts, err := h.uc.StateOptions(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// Cities handles GET /states/:id/cities.
func (h *LocationHandler) Cities(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	cities, err := h.uc.CitiesOfState(c.Request.Context(), uint(id))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}
