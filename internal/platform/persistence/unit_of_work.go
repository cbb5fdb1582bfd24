package persistence

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActorFunc resolves the authenticated user id of a request.
type ActorFunc func(c *gin.Context) (uint, bool)

// ErrorFunc writes the response for a request whose transaction failed to commit.
type ErrorFunc func(c *gin.Context, err error)

// UnitOfWork wraps each request in one database transaction.
// The transaction and the actor resolved by actor (may be nil) are bound to the
// request context. It commits when the handler chain finished without errors
// and with a status below 400, and rolls back otherwise, including on panic.
//
// The response is held back until the outcome is known. When the commit fails
// onCommitErr answers instead (a bare 500 when nil).
func UnitOfWork(db *gorm.DB, actor ActorFunc, onCommitErr ErrorFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.WithContext(c.Request.Context()).Begin()
		if tx.Error != nil {
			slog.Error("failed to begin transaction", "error", tx.Error, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
			return
		}

		out := c.Writer
		buf := &bufferedWriter{ResponseWriter: out, status: http.StatusOK, header: out.Header().Clone()}
		c.Writer = buf

		finished := false
		defer func() {
			if finished {
				return
			}
			r := recover()
			c.Writer = out
			if err := tx.Rollback().Error; err != nil {
				slog.Error("failed to roll back transaction", "error", err, "path", c.FullPath())
			}
			if r != nil {
				panic(r)
			}
			buf.flush()
		}()

		ctx := WithTx(c.Request.Context(), tx)
		if actor != nil {
			if id, ok := actor(c); ok {
				ctx = WithActor(ctx, id)
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		finished = true
		c.Writer = out
		if len(c.Errors) > 0 || buf.status >= http.StatusBadRequest {
			if err := tx.Rollback().Error; err != nil {
				slog.Error("failed to roll back transaction", "error", err, "path", c.FullPath())
			}
			buf.flush()
			return
		}
		if err := tx.Commit().Error; err != nil {
			slog.Error("failed to commit transaction", "error", err, "path", c.FullPath(), "status", buf.status)
			buf.discard()
			if onCommitErr == nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			onCommitErr(c, Classify(err))
			return
		}
		buf.flush()
	}
}

// bufferedWriter keeps status and body in memory until flush.
// Headers go straight to the wrapped writer's map; nothing is sent before flush.
type bufferedWriter struct {
	gin.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
	// header is the header set before the request reached the transaction.
	header http.Header
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.wroteHeader {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() { w.wroteHeader = true }

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.wroteHeader = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Size() int {
	if !w.wroteHeader && w.body.Len() == 0 {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool { return w.wroteHeader || w.body.Len() > 0 }

// Flush is a no-op; the body is released by flush once the transaction ends.
func (w *bufferedWriter) Flush() {}

func (w *bufferedWriter) flush() {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() > 0 {
		if _, err := w.ResponseWriter.Write(w.body.Bytes()); err != nil {
			slog.Warn("failed to write response", "error", err)
		}
		return
	}
	w.ResponseWriter.WriteHeaderNow()
}

// discard drops the held response and the headers the handlers added.
func (w *bufferedWriter) discard() {
	w.body.Reset()
	h := w.ResponseWriter.Header()
	for k := range h {
		delete(h, k)
	}
	for k, v := range w.header {
		h[k] = v
	}
}
