// Package crudview serves the search, paging, editing and report endpoints
// shared by every registration screen.
package crudview

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/platform/http/httperr"
	jwtmw "crud_backend/internal/platform/jwt"
	"crud_backend/internal/platform/pagination"
	"crud_backend/internal/platform/report"
	"crud_backend/internal/platform/search"
	"crud_backend/internal/platform/viewscope"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	// reportLimit caps the rows rendered into one report.
	reportLimit = 5000
)

// Entity is what a registration screen lists and edits.
type Entity interface {
	GetID() uint
	search.Searchable
}

// Repository is the persistence a screen needs. *persistence.Gateway satisfies it.
type Repository[T any] interface {
	FindUniqueByProperty(ctx context.Context, column string, value any, extra search.Condition) (*T, error)
	FindByQueryPage(ctx context.Context, sql string, offset, limit int, args ...any) ([]T, error)
	Count(ctx context.Context, sql string, args ...any) (int64, error)
	Merge(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, entity *T) error
	Deactivate(ctx context.Context, entity *T) error
	Table() (string, error)
	Dialect() string
}

// Reporter renders reports.
type Reporter interface {
	Generate(ctx context.Context, req report.Request) (*report.File, error)
}

// Report describes the listing printed by GET /report.
type Report[T any] struct {
	Template report.Template
	Row      func(item T) []string
}

// Config tunes one screen.
type Config[T any] struct {
	// Name keys the screen's list inside the view.
	Name string
	// SoftDelete makes DELETE deactivate the row instead of removing it.
	SoftDelete bool
	// AllowWrite registers POST and PUT; AllowDelete registers DELETE.
	AllowWrite  bool
	AllowDelete bool
	// Extra narrows every search and report, e.g. to the current user's rows.
	Extra func(c *gin.Context) search.Condition
	// Validate checks and normalizes an entity before it is stored.
	Validate func(ctx context.Context, item *T) error
	// AfterWrite runs after every successful store or removal.
	AfterWrite func(ctx context.Context)
	Report     *Report[T]
}

// SearchReq is the body of POST /search.
type SearchReq struct {
	Column   string `json:"column" binding:"required"`
	Mode     string `json:"mode"`
	Value    string `json:"value"`
	PageSize int    `json:"page_size"`
}

// PageRes is one page of the bound search.
type PageRes[T any] struct {
	Total int64 `json:"total"`
	First int   `json:"first"`
	Items []T   `json:"items"`
}

// Handler serves one registration screen.
type Handler[T Entity] struct {
	repo    Repository[T]
	reports Reporter
	scope   *viewscope.Scope
	owner   viewscope.OwnerFunc
	cfg     Config[T]
}

// NewHandler returns a Handler. reports may be nil when cfg has no report.
func NewHandler[T Entity](repo Repository[T], reports Reporter, scope *viewscope.Scope, owner viewscope.OwnerFunc, cfg Config[T]) *Handler[T] {
	if cfg.Name == "" {
		table, _ := repo.Table()
		cfg.Name = table
	}
	return &Handler[T]{repo: repo, reports: reports, scope: scope, owner: owner, cfg: cfg}
}

// Register mounts the screen routes on rg.
func (h *Handler[T]) Register(rg *gin.RouterGroup) {
	inView := viewscope.Require(h.scope, h.owner)
	withView := viewscope.Optional(h.scope, h.owner)

	rg.GET("/fields", h.Fields)
	rg.POST("/search", inView, h.Search)
	rg.GET("/page", inView, h.Page)
	rg.POST("/clean", inView, h.Clean)
	if h.cfg.Report != nil {
		rg.GET("/report", h.Report)
	}
	rg.GET("/:id", h.Get)
	if h.cfg.AllowWrite {
		rg.POST("", withView, h.Create)
		rg.PUT("/:id", withView, h.Update)
	}
	if h.cfg.AllowDelete {
		rg.DELETE("/:id", withView, h.Remove)
	}
}

// Fields handles GET /fields.
func (h *Handler[T]) Fields(c *gin.Context) {
	var zero T
	c.JSON(http.StatusOK, gin.H{"fields": search.Fields(zero), "modes": search.Modes()})
}

// Search handles POST /search: it binds the query to the view's list and returns the first page.
func (h *Handler[T]) Search(c *gin.Context) {
	var req SearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.build(c, req.Column, req.Mode, req.Value)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()
	total, err := h.repo.Count(ctx, q.CountSQL(), q.Args...)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	list, ok := h.list(c)
	if !ok {
		return
	}
	list.SetTotalCount(total, q.SelectSQL(), q.Args...)
	items, err := list.Load(ctx, 0, pageSize(req.PageSize))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, PageRes[T]{Total: total, Items: items})
}

// Page handles GET /page?first=&size=.
func (h *Handler[T]) Page(c *gin.Context) {
	first, err := strconv.Atoi(c.DefaultQuery("first", "0"))
	if err != nil || first < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid first"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}
	list, ok := h.list(c)
	if !ok {
		return
	}
	items, err := list.Load(c.Request.Context(), first, pageSize(size))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, PageRes[T]{Total: list.RowCount(), First: first, Items: items})
}

// Clean handles POST /clean.
func (h *Handler[T]) Clean(c *gin.Context) {
	list, ok := h.list(c)
	if !ok {
		return
	}
	list.Clean()
	c.Status(http.StatusNoContent)
}

// Get handles GET /:id. Rows outside the screen's Extra condition are not found.
func (h *Handler[T]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.repo.FindUniqueByProperty(c.Request.Context(), "id", id, h.extra(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST /. The stored row is added to the view's page.
func (h *Handler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if item.GetID() == 0 {
		status = http.StatusCreated
	}
	h.store(c, &item, status)
}

// Update handles PUT /:id. The body id must match the path.
func (h *Handler[T]) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if item.GetID() != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id in body does not match path"})
		return
	}
	h.store(c, &item, http.StatusOK)
}

func (h *Handler[T]) store(c *gin.Context, item *T, status int) {
	ctx := c.Request.Context()
	if h.cfg.Validate != nil {
		if err := h.cfg.Validate(ctx, item); err != nil {
			httperr.Respond(c, err)
			return
		}
	}
	merged, err := h.repo.Merge(ctx, item)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	h.afterWrite(ctx)
	if list, ok := h.viewList(c); ok {
		list.Add(*merged)
	}
	c.JSON(status, merged)
}

// Remove handles DELETE /:id. Soft-deleted screens deactivate the row.
func (h *Handler[T]) Remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	item, err := h.repo.FindUniqueByProperty(ctx, "id", id, h.extra(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if h.cfg.SoftDelete {
		err = h.repo.Deactivate(ctx, item)
	} else {
		err = h.repo.Delete(ctx, item)
	}
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	h.afterWrite(ctx)
	if list, ok := h.viewList(c); ok {
		list.Remove(*item)
	}
	c.Status(http.StatusNoContent)
}

// Report handles GET /report?format=&column=&mode=&value=. Without a column
// every row visible to the screen is printed.
func (h *Handler[T]) Report(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sql, args, err := h.reportQuery(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()
	items, err := h.repo.FindByQueryPage(ctx, sql, 0, reportLimit, args...)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = h.cfg.Report.Row(it)
	}
	params := map[string]string{"user": jwtmw.Login(c)}
	if col := c.Query("column"); col != "" {
		params["filter"] = fmt.Sprintf("%s %s %q", col, c.Query("mode"), c.Query("value"))
	}
	f, err := h.reports.Generate(ctx, report.Request{
		Template: h.cfg.Report.Template,
		Format:   format,
		Params:   params,
		Rows:     rows,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

func (h *Handler[T]) reportQuery(c *gin.Context) (string, []any, error) {
	if col := c.Query("column"); col != "" {
		q, err := h.build(c, col, c.Query("mode"), c.Query("value"))
		if err != nil {
			return "", nil, err
		}
		return q.SelectSQL(), q.Args, nil
	}
	table, err := h.repo.Table()
	if err != nil {
		return "", nil, err
	}
	if !search.ValidIdentifier(table) {
		return "", nil, fmt.Errorf("%w: table %q", search.ErrInvalidIdentifier, table)
	}
	extra := h.extra(c)
	if extra.Empty() {
		return "SELECT * FROM " + table + " ORDER BY id", nil, nil
	}
	return "SELECT * FROM " + table + " WHERE " + extra.SQL + " ORDER BY id", extra.Args, nil
}

func (h *Handler[T]) build(c *gin.Context, column, mode, value string) (search.Query, error) {
	var zero T
	field, ok := search.Lookup(search.Fields(zero), column)
	if !ok {
		return search.Query{}, fmt.Errorf("%w: unknown column %q", search.ErrNoField, column)
	}
	m, err := search.ParseMode(mode)
	if err != nil {
		return search.Query{}, err
	}
	table, err := h.repo.Table()
	if err != nil {
		return search.Query{}, err
	}
	return search.NewBuilder(table, h.repo.Dialect()).Build(search.Request{
		Field: field,
		Mode:  m,
		Value: value,
		Extra: h.extra(c),
	})
}

func (h *Handler[T]) extra(c *gin.Context) search.Condition {
	if h.cfg.Extra == nil {
		return search.Condition{}
	}
	return h.cfg.Extra(c)
}

func (h *Handler[T]) afterWrite(ctx context.Context) {
	if h.cfg.AfterWrite != nil {
		h.cfg.AfterWrite(ctx)
	}
}

// list returns the view's list, answering the request itself on failure.
func (h *Handler[T]) list(c *gin.Context) (*pagination.LazyList[T], bool) {
	v, ok := viewscope.FromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + viewscope.HeaderViewID + " header"})
		return nil, false
	}
	list, err := h.bean(v)
	if err != nil {
		httperr.Respond(c, err)
		return nil, false
	}
	return list, true
}

// viewList returns the view's list when the request carries a view.
func (h *Handler[T]) viewList(c *gin.Context) (*pagination.LazyList[T], bool) {
	v, ok := viewscope.FromContext(c)
	if !ok {
		return nil, false
	}
	list, err := h.bean(v)
	return list, err == nil
}

func (h *Handler[T]) bean(v *viewscope.View) (*pagination.LazyList[T], error) {
	list, err := viewscope.Bean(v, h.cfg.Name, func() *pagination.LazyList[T] {
		return pagination.NewLazyList[T](h.repo)
	})
	if err != nil {
		return nil, fmt.Errorf("view bean %s: %w", h.cfg.Name, err)
	}
	v.RegisterDestructionCallback(h.cfg.Name, list.Clean)
	return list, nil
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func pageSize(n int) int {
	switch {
	case n <= 0:
		return defaultPageSize
	case n > maxPageSize:
		return maxPageSize
	}
	return n
}
