package quotes

import (
	"context"
	"time"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

const getRateKey = "pricing.get_rate"

// GetRateQuery resolves the nightly rate of one day. With Today set, the day
// is the current date at the property.
type GetRateQuery struct {
	ApartmentID string
	Date        time.Time
	Today       bool
}

func (q GetRateQuery) Key() string { return getRateKey }

type GetRateHandler struct {
	UoWFactory uow.UoWFactory
	Conflicts  *support.ConflictReporter
	Now        func() time.Time
}

func (h *GetRateHandler) Handle(ctx context.Context, q GetRateQuery) (dto.Rate, error) {
	unit, execCtx, release, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rate{}, err
	}
	defer release()

	id := rates.ApartmentID(q.ApartmentID)
	apt, err := unit.Rates().Apartment(execCtx, id)
	if err != nil {
		return dto.Rate{}, err
	}
	day := daterange.Civil(q.Date)
	if q.Today {
		day = apt.LocalDay(h.now())
	}
	snap, err := rates.LoadSnapshot(execCtx, unit.Rates(), id, daterange.DateRange{CheckIn: day, CheckOut: daterange.NextDay(day)})
	if err != nil {
		return dto.Rate{}, err
	}

	rate := pricing.ResolveRate(snap.Apartment, snap.Rules, day)
	if rate.Conflict != nil {
		h.Conflicts.Report(ctx, []pricing.RuleConflictWarning{*rate.Conflict})
	}
	return dto.MapRate(q.ApartmentID, rate), nil
}

func (h *GetRateHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ queries.Handler[GetRateQuery, dto.Rate] = (*GetRateHandler)(nil)
