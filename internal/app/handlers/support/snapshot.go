package support

import (
	"context"

	"stayrates/internal/app/uow"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

// LoadSnapshot reads one apartment's rules and bookings for window inside a
// single read-only unit of work, which is released before returning.
func LoadSnapshot(ctx context.Context, factory uow.UoWFactory, id string, window daterange.DateRange) (rates.Snapshot, error) {
	unit, execCtx, release, err := uow.BeginReadOnly(ctx, factory)
	if err != nil {
		return rates.Snapshot{}, err
	}
	defer release()
	return rates.LoadSnapshot(execCtx, unit.Rates(), rates.ApartmentID(id), window)
}
