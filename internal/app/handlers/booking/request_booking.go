package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayrates/internal/app/commands"
	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/middleware"
	"stayrates/internal/app/outbox"
	"stayrates/internal/app/uow"
	domainavailability "stayrates/internal/domain/availability"
	domainbooking "stayrates/internal/domain/booking"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrApartmentInactive  = errors.New("booking: apartment is not accepting bookings")
	ErrDatesUnavailable   = errors.New("booking: dates unavailable")
)

// DatesUnavailableError lists the nights of a requested stay that are already
// held or blocked.
type DatesUnavailableError struct {
	Dates []string
}

func (e *DatesUnavailableError) Error() string {
	return "booking: dates unavailable: " + strings.Join(e.Dates, ", ")
}

func (e *DatesUnavailableError) Is(target error) bool { return target == ErrDatesUnavailable }

type RequestBookingCommand struct {
	ApartmentID     string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.BookingResult{} }

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Conflicts  *support.ConflictReporter
	Logger     *slog.Logger
	IDs        func() string
	Now        func() time.Time
}

// Handle re-prices the stay and re-checks every night against the snapshot
// read in the same unit of work before the booking is stored.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.BookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		if injector, ok := unit.(uow.ContextInjector); ok {
			ctx = injector.InjectContext(ctx)
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	checkIn, checkOut := daterange.Civil(cmd.CheckIn), daterange.Civil(cmd.CheckOut)
	stay := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	window := stay
	if !checkIn.Before(checkOut) {
		window.CheckOut = daterange.NextDay(checkIn)
	}
	snap, err := rates.LoadSnapshot(ctx, unit.Rates(), rates.ApartmentID(cmd.ApartmentID), window)
	if err != nil {
		return nil, err
	}
	if !snap.Apartment.Active {
		return nil, ErrApartmentInactive
	}

	quote, err := pricing.BuildQuote(snap.Apartment, snap.Rules, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	cal, err := domainavailability.Resolve(snap.Apartment, snap.Rules, snap.Bookings, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if taken := cal.UnavailableNights(stay); len(taken) > 0 {
		dates := make([]string, 0, len(taken))
		for _, d := range taken {
			dates = append(dates, daterange.Format(d))
		}
		h.logger().WarnContext(ctx, "overbooking prevented",
			"apartment_id", cmd.ApartmentID,
			"check_in", daterange.Format(checkIn),
			"check_out", daterange.Format(checkOut),
			"conflicting_dates", dates,
		)
		return nil, &DatesUnavailableError{Dates: dates}
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(h.newID()),
		ApartmentID: cmd.ApartmentID,
		GuestID:     cmd.GuestID,
		Range:       stay,
		Quote:       quote.Snapshot(),
		CreatedAt:   h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.Drain()); err != nil {
		return nil, err
	}
	h.Conflicts.Report(ctx, quote.Warnings)

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &dto.BookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Quote:     dto.MapQuote(quote),
	}, nil
}

func (h *RequestBookingHandler) newID() string {
	if h.IDs != nil {
		return h.IDs()
	}
	return uuid.NewString()
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *RequestBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[RequestBookingCommand, *dto.BookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
