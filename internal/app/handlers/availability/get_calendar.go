package availability

import (
	"context"
	"errors"
	"time"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	domainavailability "stayrates/internal/domain/availability"
	"stayrates/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.get_calendar"

// MaxCalendarDays caps one calendar query at two years of cells.
const MaxCalendarDays = 731

var ErrRangeTooLong = errors.New("availability: calendar range too long")

// GetCalendarQuery asks for the inclusive calendar [From, To].
type GetCalendarQuery struct {
	ApartmentID string
	From        time.Time
	To          time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

func (q GetCalendarQuery) Validate() error {
	from, to := daterange.Civil(q.From), daterange.Civil(q.To)
	if !from.Before(to) {
		return &domainavailability.InvalidRangeError{Start: from, End: to}
	}
	if (daterange.DateRange{CheckIn: from, CheckOut: to}).Nights()+1 > MaxCalendarDays {
		return ErrRangeTooLong
	}
	return nil
}

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Conflicts  *support.ConflictReporter
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	if err := q.Validate(); err != nil {
		return dto.Calendar{}, err
	}
	window := daterange.DateRange{CheckIn: daterange.Civil(q.From), CheckOut: daterange.NextDay(daterange.Civil(q.To))}
	snap, err := support.LoadSnapshot(ctx, h.UoWFactory, q.ApartmentID, window)
	if err != nil {
		return dto.Calendar{}, err
	}
	cal, err := domainavailability.Resolve(snap.Apartment, snap.Rules, snap.Bookings, q.From, q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	h.Conflicts.Report(ctx, cal.Warnings)
	return dto.MapCalendar(cal), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
