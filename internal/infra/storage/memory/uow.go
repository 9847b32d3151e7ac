package memory

import (
	"context"
	"errors"
	"sync"

	"stayrates/internal/app/uow"
	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
)

// Factory wires the in-memory store into a unit-of-work boundary. Writers are
// serialized and readers share, which gives every unit a consistent view.
type Factory struct {
	Store  *Store
	Outbox *Outbox

	mu *sync.RWMutex
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func NewFactory(store *Store, box *Outbox) Factory {
	return Factory{Store: store, Outbox: box, mu: &sync.RWMutex{}}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil || f.mu == nil {
		return nil, ErrFactoryMisconfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit := &Unit{store: f.Store, outbox: f.Outbox, buffer: &txBuffer{}}
	if opts.ReadOnly {
		f.mu.RLock()
		unit.unlock = f.mu.RUnlock
	} else {
		f.mu.Lock()
		unit.unlock = f.mu.Unlock
	}
	return unit, nil
}

// Unit is a uow.UnitOfWork backed by the in-memory store. Outbox records
// added through its context are held until Commit.
type Unit struct {
	store  *Store
	outbox *Outbox
	buffer *txBuffer
	unlock func()
	once   sync.Once
}

func (u *Unit) Rates() domainrates.Store {
	return u.store
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.store
}

func (u *Unit) Commit(ctx context.Context) error {
	u.finish(func() {
		if u.outbox != nil {
			u.outbox.enqueue(u.buffer.records...)
		}
	})
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.finish(func() {})
	return nil
}

func (u *Unit) finish(apply func()) {
	u.once.Do(func() {
		apply()
		u.buffer.records = nil
		u.unlock()
	})
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txBufferKey{}, u.buffer)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
