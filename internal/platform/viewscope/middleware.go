package viewscope

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderViewID carries the id returned when the view was opened.
const HeaderViewID = "X-View-ID"

const contextKeyView = "view"

// OwnerFunc returns the identity views are owned by.
type OwnerFunc func(c *gin.Context) string

// Require acquires the view named by the X-View-ID header for the rest of the
// chain and rejects the request when it is missing or unusable.
func Require(s *Scope, owner OwnerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderViewID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + HeaderViewID + " header"})
			return
		}
		acquire(c, s, id, owner(c))
	}
}

// Optional acquires the view when the header is present and passes through otherwise.
func Optional(s *Scope, owner OwnerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderViewID)
		if id == "" {
			c.Next()
			return
		}
		acquire(c, s, id, owner(c))
	}
}

func acquire(c *gin.Context, s *Scope, id, owner string) {
	v, err := s.Acquire(id, owner)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, ErrViewForbidden) {
			status = http.StatusForbidden
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}
	defer s.Release(v)

	c.Set(contextKeyView, v)
	c.Next()
}

// FromContext returns the view acquired for the request.
func FromContext(c *gin.Context) (*View, bool) {
	v, ok := c.Get(contextKeyView)
	if !ok {
		return nil, false
	}
	view, ok := v.(*View)
	return view, ok
}
