package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}

// BeginReadOnly reuses the unit already in ctx or opens a read-only one. The
// returned release func is never nil.
func BeginReadOnly(ctx context.Context, factory UoWFactory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, func() {}, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, func() {}, err
	}
	execCtx := ctx
	if injector, ok := unit.(ContextInjector); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = ContextWithUnitOfWork(execCtx, unit)
	release := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, release, nil
}
