package availability

import (
	"errors"
	"fmt"
	"time"

	"stayrates/internal/domain/booking"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// ErrInvalidRange matches every *InvalidRangeError through errors.Is.
var ErrInvalidRange = errors.New("availability: range start must be before range end")

// InvalidRangeError marks a malformed calendar query. It is a caller bug.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("availability: invalid range %s..%s: start must be before end",
		daterange.Format(e.Start), daterange.Format(e.End))
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBlocked   Status = "BLOCKED"
	StatusBooked    Status = "BOOKED"
)

const (
	ReasonBooking = "booking"
	ReasonBlocked = "blocked"
)

// Day is one rendered calendar cell.
type Day struct {
	Date        time.Time
	IsAvailable bool
	Status      Status
	Price       money.Money
	RateType    pricing.RateType
	Reason      string
}

type Calendar struct {
	ApartmentID rates.ApartmentID
	Days        []Day
	Warnings    []pricing.RuleConflictWarning
}

// Resolve renders [start, end] inclusive of end, since a calendar shows its
// closing day. Overrides apply over computed rates and bookings apply over
// overrides.
func Resolve(apt rates.Apartment, rules rates.RuleSet, bookings []booking.Booking, start, end time.Time) (Calendar, error) {
	start, end = daterange.Civil(start), daterange.Civil(end)
	if !start.Before(end) {
		return Calendar{}, &InvalidRangeError{Start: start, End: end}
	}

	cal := Calendar{ApartmentID: apt.ID}
	index := make(map[string]int)
	for d := start; !d.After(end); d = daterange.NextDay(d) {
		rate := pricing.ResolveRate(apt, rules, d)
		if rate.Conflict != nil {
			cal.Warnings = append(cal.Warnings, *rate.Conflict)
		}
		index[daterange.Format(d)] = len(cal.Days)
		cal.Days = append(cal.Days, Day{
			Date:        d,
			IsAvailable: true,
			Status:      StatusAvailable,
			Price:       rate.Price,
			RateType:    rate.Type,
		})
	}

	for i := range cal.Days {
		day := &cal.Days[i]
		ov, ok := rules.OverrideOn(day.Date)
		if !ok || (ov.ApartmentID != "" && ov.ApartmentID != apt.ID) {
			continue
		}
		switch ov.Status {
		case rates.OverrideBlocked:
			day.Status = StatusBlocked
			day.IsAvailable = false
			day.Reason = ReasonBlocked
		case rates.OverrideAvailable:
			day.Status = StatusAvailable
			day.IsAvailable = true
		}
		if ov.Note != "" {
			day.Reason = ov.Note
		}
		if ov.PriceOverride != nil {
			day.Price = apt.Money(*ov.PriceOverride)
			day.RateType = pricing.RateOverride
		}
	}

	for _, b := range bookings {
		if !b.Blocks() || (b.ApartmentID != "" && b.ApartmentID != string(apt.ID)) {
			continue
		}
		for _, d := range b.Range.Days() {
			i, ok := index[daterange.Format(d)]
			if !ok {
				continue
			}
			cal.Days[i].Status = StatusBooked
			cal.Days[i].IsAvailable = false
			cal.Days[i].Reason = ReasonBooking
		}
	}
	return cal, nil
}

// UnavailableNights lists the nights of stay the calendar does not offer.
// Days outside the calendar count as unavailable.
func (c Calendar) UnavailableNights(stay daterange.DateRange) []time.Time {
	byDate := make(map[string]Day, len(c.Days))
	for _, d := range c.Days {
		byDate[daterange.Format(d.Date)] = d
	}
	var out []time.Time
	for _, night := range stay.Days() {
		if d, ok := byDate[daterange.Format(night)]; !ok || !d.IsAvailable {
			out = append(out, night)
		}
	}
	return out
}
