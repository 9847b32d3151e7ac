package uow

import (
	"context"

	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Reads
// through Rates() within one unit observe a single consistent snapshot.
type UnitOfWork interface {
	Rates() domainrates.Store
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (sessions)
// downstream repositories need to find in the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
