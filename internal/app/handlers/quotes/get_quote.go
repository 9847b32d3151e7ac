package quotes

import (
	"context"
	"time"

	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/shared/daterange"
)

const getQuoteKey = "pricing.get_quote"

type GetQuoteQuery struct {
	ApartmentID string
	CheckIn     time.Time
	CheckOut    time.Time
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Conflicts  *support.ConflictReporter
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	checkIn, checkOut := daterange.Civil(q.CheckIn), daterange.Civil(q.CheckOut)
	window := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if !checkIn.Before(checkOut) {
		// still load the apartment so an unknown id reports as such
		window.CheckOut = daterange.NextDay(checkIn)
	}
	snap, err := support.LoadSnapshot(ctx, h.UoWFactory, q.ApartmentID, window)
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := pricing.BuildQuote(snap.Apartment, snap.Rules, checkIn, checkOut)
	if err != nil {
		return dto.Quote{}, err
	}
	h.Conflicts.Report(ctx, quote.Warnings)
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
