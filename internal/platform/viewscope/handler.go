package viewscope

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes opening and closing views over HTTP.
type Handler struct {
	scope *Scope
	owner OwnerFunc
}

// NewHandler returns a Handler for scope.
func NewHandler(scope *Scope, owner OwnerFunc) *Handler {
	return &Handler{scope: scope, owner: owner}
}

// Open handles POST /views.
func (h *Handler) Open(c *gin.Context) {
	id := h.scope.Create(h.owner(c))
	c.JSON(http.StatusCreated, gin.H{"view_id": id})
}

// Close handles DELETE /views/:id.
func (h *Handler) Close(c *gin.Context) {
	err := h.scope.Destroy(c.Param("id"), h.owner(c))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrViewForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	}
}
