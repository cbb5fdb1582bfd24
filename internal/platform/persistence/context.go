// Package persistence provides the generic gateway every feature uses to talk to
// the relational store, together with the request-scoped transaction handling.
package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

type actorKey struct{}

// WithTx binds tx to ctx. Gateway calls made with the returned context join tx
// instead of opening their own transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the connection a repository should use for ctx: the bound
// request transaction when present, db otherwise.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// WithActor records the authenticated user id responsible for writes made with ctx.
// A zero id is ignored.
func WithActor(ctx context.Context, userID uint) context.Context {
	if userID == 0 {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the user id stored by WithActor.
func ActorFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(actorKey{}).(uint)
	return id, ok && id != 0
}

// InTx runs fn with a context bound to a transaction: the one already bound to
// ctx, or a new one on db that commits when fn returns nil.
func InTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
