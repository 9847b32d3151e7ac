package availability

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/outbox"
	domainavailability "stayrates/internal/domain/availability"
	domainbooking "stayrates/internal/domain/booking"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/infra/storage/memory"
)

func day(s string) time.Time { return daterange.MustParseDate(s) }

func newHandler(t *testing.T) (*GetCalendarHandler, *memory.Outbox) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore("UTC")
	require.NoError(t, store.PutApartment(ctx, rates.Apartment{
		ID: "apt-1", BasePrice: 120, ServiceFeePercentage: decimal.NewFromInt(5), Currency: "EUR", Active: true,
	}))
	require.NoError(t, store.AddEventRule(ctx, rates.EventPriceRule{
		ID: "e1", ApartmentID: "apt-1", EventName: "Festival", Price: 300,
		StartDate: day("2025-06-12"), EndDate: day("2025-06-14"), Active: true,
	}))
	require.NoError(t, store.AddEventRule(ctx, rates.EventPriceRule{
		ID: "e2", ApartmentID: "apt-1", EventName: "Concert", Price: 280,
		StartDate: day("2025-06-13"), EndDate: day("2025-06-14"), Active: true,
	}))
	require.NoError(t, store.AddOverride(ctx, rates.AvailabilityOverride{
		ApartmentID: "apt-1", Date: day("2025-06-16"), Status: rates.OverrideBlocked, Note: "owner stay",
	}))
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "b-1", ApartmentID: "apt-1", GuestID: "g-1",
		Range:     daterange.DateRange{CheckIn: day("2025-06-10"), CheckOut: day("2025-06-12")},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, b))

	box := memory.NewOutbox()
	return &GetCalendarHandler{
		UoWFactory: memory.NewFactory(store, box),
		Conflicts:  &support.ConflictReporter{Outbox: box, Encoder: outbox.JSONEventEncoder{}},
	}, box
}

func TestGetCalendar(t *testing.T) {
	h, box := newHandler(t)

	cal, err := h.Handle(context.Background(), GetCalendarQuery{ApartmentID: "apt-1", From: day("2025-06-09"), To: day("2025-06-16")})
	require.NoError(t, err)
	assert.Equal(t, "apt-1", cal.ApartmentID)
	assert.Equal(t, "2025-06-09", cal.From)
	assert.Equal(t, "2025-06-16", cal.To)
	require.Len(t, cal.Days, 8)

	byDate := make(map[string]string, len(cal.Days))
	for _, d := range cal.Days {
		byDate[d.Date] = d.Status
	}
	assert.Equal(t, "AVAILABLE", byDate["2025-06-09"])
	assert.Equal(t, "BOOKED", byDate["2025-06-10"])
	assert.Equal(t, "BOOKED", byDate["2025-06-11"])
	assert.Equal(t, "AVAILABLE", byDate["2025-06-12"], "checkout day is free")
	assert.Equal(t, "BLOCKED", byDate["2025-06-16"], "window includes the last day")

	concert := cal.Days[4]
	assert.Equal(t, "2025-06-13", concert.Date)
	assert.Equal(t, "EVENT", concert.RateType)
	assert.Equal(t, int64(280), concert.Price.Amount)
	require.Len(t, cal.Warnings, 1)
	assert.Equal(t, "e2", cal.Warnings[0].ChosenID)
	assert.Len(t, box.Pending(), 1)
}

func TestGetCalendar_Validation(t *testing.T) {
	h, _ := newHandler(t)
	ctx := context.Background()

	_, err := h.Handle(ctx, GetCalendarQuery{ApartmentID: "apt-1", From: day("2025-06-10"), To: day("2025-06-10")})
	assert.ErrorIs(t, err, domainavailability.ErrInvalidRange)

	_, err = h.Handle(ctx, GetCalendarQuery{ApartmentID: "apt-1", From: day("2025-01-01"), To: day("2027-01-02")})
	assert.ErrorIs(t, err, ErrRangeTooLong)

	assert.NoError(t, GetCalendarQuery{From: day("2025-01-01"), To: day("2026-12-31")}.Validate())

	_, err = h.Handle(ctx, GetCalendarQuery{ApartmentID: "ghost", From: day("2025-06-10"), To: day("2025-06-12")})
	assert.ErrorIs(t, err, rates.ErrApartmentNotFound)
}
