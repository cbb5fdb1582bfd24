package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crud_backend/internal/platform/search"
)

// Identifiable is implemented by every entity the gateway persists.
// Entities use an auto-increment "id" primary key column.
type Identifiable interface {
	GetID() uint
}

// Versioned entities are updated with an optimistic lock on their "version" column.
type Versioned interface {
	GetVersion() int
	SetVersion(v int)
}

// SoftDeletable entities are deactivated through their "inactive" column instead of removed.
type SoftDeletable interface {
	IsInactive() bool
	SetInactive(inactive bool)
}

type options struct {
	audit    string
	preloads []string
}

// Option configures a Gateway.
type Option func(*options)

// WithAudit makes every write also insert a Revision row for entity.
func WithAudit(entity string) Option {
	return func(o *options) { o.audit = entity }
}

// WithPreload loads the named associations on FindByID, FindAll, FindActive,
// FindUniqueByProperty and Merge results.
func WithPreload(associations ...string) Option {
	return func(o *options) { o.preloads = append(o.preloads, associations...) }
}

// Gateway is the generic CRUD access point for one entity type.
// Calls join the transaction bound to their context; writes made without one
// run in a transaction of their own.
type Gateway[T any] struct {
	db   *gorm.DB
	opts options
}

// NewGateway returns a Gateway for T.
func NewGateway[T any](db *gorm.DB, opts ...Option) *Gateway[T] {
	g := &Gateway[T]{db: db}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// Table returns the table T is mapped to.
func (g *Gateway[T]) Table() (string, error) {
	stmt := &gorm.Statement{DB: g.db}
	if err := stmt.Parse(new(T)); err != nil {
		return "", err
	}
	return stmt.Schema.Table, nil
}

// Dialect returns the dialector name of the underlying connection.
func (g *Gateway[T]) Dialect() string {
	return g.db.Dialector.Name()
}

func (g *Gateway[T]) conn(ctx context.Context) *gorm.DB {
	return Conn(ctx, g.db)
}

func (g *Gateway[T]) preloaded(ctx context.Context) *gorm.DB {
	q := g.conn(ctx)
	for _, p := range g.opts.preloads {
		q = q.Preload(p)
	}
	return q
}

// write runs fn in the bound transaction, or in a new one when none is bound.
func (g *Gateway[T]) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := TxFromContext(ctx); ok {
		return Classify(fn(tx.WithContext(ctx)))
	}
	return Classify(g.db.WithContext(ctx).Transaction(fn))
}

// Save inserts entity and fills its generated id.
func (g *Gateway[T]) Save(ctx context.Context, entity *T) error {
	return g.write(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return g.revise(ctx, tx, idOf(entity), RevisionAdd)
	})
}

// Update writes every column of an existing entity. Versioned entities fail
// with ErrStaleObject when their version no longer matches the stored one.
func (g *Gateway[T]) Update(ctx context.Context, entity *T) error {
	id := idOf(entity)
	if id == 0 {
		return ErrMissingID
	}
	return g.write(ctx, func(tx *gorm.DB) error {
		if err := g.update(tx, entity); err != nil {
			return err
		}
		return g.revise(ctx, tx, id, RevisionMod)
	})
}

func (g *Gateway[T]) update(tx *gorm.DB, entity *T) error {
	if v, ok := any(entity).(Versioned); ok {
		return updateVersioned(tx, entity, v)
	}
	var n int64
	if err := tx.Model(new(T)).Where("id = ?", idOf(entity)).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	// Select("*") keeps zero values and stops Save from falling back to an insert.
	return tx.Select("*").Omit(clause.Associations).Save(entity).Error
}

func updateVersioned[T any](tx *gorm.DB, entity *T, v Versioned) error {
	current := v.GetVersion()
	v.SetVersion(current + 1)
	res := tx.Model(entity).
		Select("*").
		Omit(clause.Associations).
		Where("version = ?", current).
		Updates(entity)
	if res.Error != nil {
		v.SetVersion(current)
		return res.Error
	}
	if res.RowsAffected == 0 {
		v.SetVersion(current)
		return ErrStaleObject
	}
	return nil
}

// SaveOrUpdate inserts entity when it has no id and updates it otherwise.
// Non-versioned entities with an unknown id are inserted with that id.
func (g *Gateway[T]) SaveOrUpdate(ctx context.Context, entity *T) error {
	id := idOf(entity)
	if id == 0 {
		return g.Save(ctx, entity)
	}
	return g.write(ctx, func(tx *gorm.DB) error {
		if v, ok := any(entity).(Versioned); ok {
			if err := updateVersioned(tx, entity, v); err != nil {
				return err
			}
		} else if err := tx.Omit(clause.Associations).Save(entity).Error; err != nil {
			return err
		}
		return g.revise(ctx, tx, id, RevisionMod)
	})
}

// Merge inserts entity when it has no id and updates it otherwise, then returns
// the row as read back from the database, associations included. Unlike
// SaveOrUpdate, an unknown id fails with ErrNotFound.
func (g *Gateway[T]) Merge(ctx context.Context, entity *T) (*T, error) {
	var merged *T
	err := g.write(ctx, func(tx *gorm.DB) error {
		op := RevisionAdd
		switch v, versioned := any(entity).(Versioned); {
		case idOf(entity) == 0:
			if err := tx.Create(entity).Error; err != nil {
				return err
			}
		case versioned:
			op = RevisionMod
			if err := updateVersioned(tx, entity, v); err != nil {
				return err
			}
		default:
			op = RevisionMod
			if err := g.update(tx, entity); err != nil {
				return err
			}
		}

		id := idOf(entity)
		out := new(T)
		q := tx
		for _, p := range g.opts.preloads {
			q = q.Preload(p)
		}
		if err := q.First(out, id).Error; err != nil {
			return err
		}
		merged = out
		return g.revise(ctx, tx, id, op)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Delete removes entity by id.
func (g *Gateway[T]) Delete(ctx context.Context, entity *T) error {
	id := idOf(entity)
	if id == 0 {
		return ErrMissingID
	}
	return g.write(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return g.revise(ctx, tx, id, RevisionDel)
	})
}

// Deactivate marks a soft-deletable entity inactive and stores it.
func (g *Gateway[T]) Deactivate(ctx context.Context, entity *T) error {
	sd, ok := any(entity).(SoftDeletable)
	if !ok {
		return ErrNotSoftDeletable
	}
	sd.SetInactive(true)
	if err := g.Update(ctx, entity); err != nil {
		sd.SetInactive(false)
		return err
	}
	return nil
}

// FindByID returns the entity with id or ErrNotFound.
func (g *Gateway[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	out := new(T)
	if err := g.preloaded(ctx).First(out, id).Error; err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// FindAll returns every row ordered by id, inactive ones included.
func (g *Gateway[T]) FindAll(ctx context.Context) ([]T, error) {
	var list []T
	if err := g.preloaded(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, Classify(err)
	}
	return list, nil
}

// FindActive returns the rows not marked inactive, ordered by id.
func (g *Gateway[T]) FindActive(ctx context.Context) ([]T, error) {
	if _, ok := any(new(T)).(SoftDeletable); !ok {
		return nil, ErrNotSoftDeletable
	}
	var list []T
	if err := g.preloaded(ctx).Where("inactive = ?", false).Order("id").Find(&list).Error; err != nil {
		return nil, Classify(err)
	}
	return list, nil
}

// FindByQuery runs a parameterized select whose columns map onto T.
func (g *Gateway[T]) FindByQuery(ctx context.Context, sql string, args ...any) ([]T, error) {
	list := []T{}
	if err := g.conn(ctx).Raw(sql, args...).Scan(&list).Error; err != nil {
		return nil, Classify(err)
	}
	return list, nil
}

// FindByQueryPage runs sql restricted to limit rows starting at offset.
func (g *Gateway[T]) FindByQueryPage(ctx context.Context, sql string, offset, limit int, args ...any) ([]T, error) {
	if offset < 0 || limit <= 0 {
		return []T{}, nil
	}
	paged := sql + " LIMIT ? OFFSET ?"
	return g.FindByQuery(ctx, paged, append(append([]any{}, args...), limit, offset)...)
}

// FindUniqueByProperty returns the single row whose column equals value,
// optionally narrowed by extra. column must be a plain identifier.
func (g *Gateway[T]) FindUniqueByProperty(ctx context.Context, column string, value any, extra search.Condition) (*T, error) {
	if !search.ValidIdentifier(column) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}
	q := g.preloaded(ctx).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if !extra.Empty() {
		q = q.Where(extra.SQL, extra.Args...)
	}
	var list []T
	if err := q.Limit(2).Find(&list).Error; err != nil {
		return nil, Classify(err)
	}
	switch len(list) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &list[0], nil
	default:
		return nil, fmt.Errorf("%w: more than one row has %s = %v", ErrDuplicate, column, value)
	}
}

// Exec runs a parameterized statement and returns the affected row count.
func (g *Gateway[T]) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var affected int64
	err := g.write(ctx, func(tx *gorm.DB) error {
		res := tx.Exec(sql, args...)
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// RawList runs a parameterized select and returns its rows as column maps.
func (g *Gateway[T]) RawList(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows := []map[string]any{}
	if err := g.conn(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, Classify(err)
	}
	return rows, nil
}

// Count runs a parameterized single-value count query.
func (g *Gateway[T]) Count(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	if err := g.conn(ctx).Raw(sql, args...).Scan(&n).Error; err != nil {
		return 0, Classify(err)
	}
	return n, nil
}

// TotalRows returns the number of rows of T's table.
func (g *Gateway[T]) TotalRows(ctx context.Context) (int64, error) {
	var n int64
	if err := g.conn(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, Classify(err)
	}
	return n, nil
}

// Revisions returns the audit trail of one entity, oldest first.
func (g *Gateway[T]) Revisions(ctx context.Context, id uint) ([]Revision, error) {
	if g.opts.audit == "" {
		return nil, errors.New("auditing is not enabled for this entity")
	}
	var revs []Revision
	err := g.conn(ctx).
		Where("entity = ? AND entity_id = ?", g.opts.audit, id).
		Order("id").
		Find(&revs).Error
	return revs, Classify(err)
}

func (g *Gateway[T]) revise(ctx context.Context, tx *gorm.DB, id uint, op RevisionType) error {
	if g.opts.audit == "" {
		return nil
	}
	rev := &Revision{
		Timestamp: time.Now(),
		Entity:    g.opts.audit,
		EntityID:  id,
		Operation: op,
	}
	if actor, ok := ActorFromContext(ctx); ok {
		rev.UserID = &actor
	}
	return tx.Create(rev).Error
}

func idOf(entity any) uint {
	if e, ok := entity.(Identifiable); ok {
		return e.GetID()
	}
	return 0
}
