package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"stayrates/internal/domain/booking"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// PriceSegment is a maximal run of consecutive nights sharing price, rate
// type and rule name. End is exclusive.
type PriceSegment struct {
	Start    time.Time
	End      time.Time
	Nights   int
	Price    money.Money
	Type     RateType
	RuleID   string
	RuleName string
	Subtotal money.Money
}

func (s PriceSegment) sameRate(r Rate) bool {
	return s.Price.Amount == r.Price.Amount && s.Type == r.Type && s.RuleName == r.RuleName
}

type StayQuote struct {
	ApartmentID          rates.ApartmentID
	CheckIn              time.Time
	CheckOut             time.Time
	Nights               int
	Segments             []PriceSegment
	Subtotal             money.Money
	DiscountableSubtotal money.Money
	DiscountPercentage   decimal.Decimal
	DiscountAmount       money.Money
	PriceAfterDiscount   money.Money
	ServiceFee           money.Money
	CleaningFee          money.Money
	Total                money.Money
	Warnings             []RuleConflictWarning
}

// Snapshot freezes the quote totals for storage on a booking.
func (q StayQuote) Snapshot() booking.QuoteSnapshot {
	return booking.QuoteSnapshot{
		Nights:      q.Nights,
		Subtotal:    q.Subtotal,
		Discount:    q.DiscountAmount,
		ServiceFee:  q.ServiceFee,
		CleaningFee: q.CleaningFee,
		Total:       q.Total,
	}
}

// ValidateStay checks the stay-shape preconditions of an apartment.
func ValidateStay(apt rates.Apartment, checkIn, checkOut time.Time) error {
	checkIn, checkOut = daterange.Civil(checkIn), daterange.Civil(checkOut)
	if !checkIn.Before(checkOut) {
		return invalidStay(ConstraintDateOrder, 0, 0, "check-in %s must be before check-out %s",
			daterange.Format(checkIn), daterange.Format(checkOut))
	}
	nights := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}.Nights()
	if nights < apt.MinStayNights {
		return invalidStay(ConstraintMinStay, nights, apt.MinStayNights, "%d nights below minimum of %d", nights, apt.MinStayNights)
	}
	if apt.MaxStayNights > 0 && nights > apt.MaxStayNights {
		return invalidStay(ConstraintMaxStay, nights, apt.MaxStayNights, "%d nights above maximum of %d", nights, apt.MaxStayNights)
	}
	if !apt.BookingHorizon.IsZero() {
		horizon := daterange.Civil(apt.BookingHorizon)
		if checkOut.After(horizon) {
			return invalidStay(ConstraintHorizon, nights, 0, "check-out %s is past the booking horizon %s",
				daterange.Format(checkOut), daterange.Format(horizon))
		}
	}
	return nil
}

// BuildQuote prices the stay [checkIn, checkOut). It depends only on its
// arguments, so repeated calls over the same snapshot agree.
func BuildQuote(apt rates.Apartment, rules rates.RuleSet, checkIn, checkOut time.Time) (StayQuote, error) {
	if err := ValidateStay(apt, checkIn, checkOut); err != nil {
		return StayQuote{}, err
	}
	stay := daterange.DateRange{CheckIn: daterange.Civil(checkIn), CheckOut: daterange.Civil(checkOut)}

	var (
		segments []PriceSegment
		warnings []RuleConflictWarning
	)
	for _, day := range stay.Days() {
		rate := ResolveRate(apt, rules, day)
		if rate.Conflict != nil {
			warnings = append(warnings, *rate.Conflict)
		}
		if n := len(segments); n > 0 && segments[n-1].sameRate(rate) {
			segments[n-1].Nights++
			segments[n-1].End = daterange.NextDay(day)
			continue
		}
		segments = append(segments, PriceSegment{
			Start:    day,
			End:      daterange.NextDay(day),
			Nights:   1,
			Price:    rate.Price,
			Type:     rate.Type,
			RuleID:   rate.RuleID,
			RuleName: rate.RuleName,
		})
	}

	var subtotal, discountable int64
	for i := range segments {
		seg := &segments[i]
		seg.Subtotal = seg.Price.Multiply(int64(seg.Nights))
		subtotal += seg.Subtotal.Amount
		if seg.Type != RateEvent {
			discountable += seg.Subtotal.Amount
		}
	}

	nights := stay.Nights()
	discount, err := ResolveDiscount(nights, apt.Money(discountable), rules.Discounts)
	if err != nil {
		return StayQuote{}, err
	}
	afterDiscount := apt.Money(subtotal - discount.Amount.Amount)
	serviceFee := afterDiscount.Percent(apt.ServiceFeePercentage)
	cleaning := apt.Money(apt.CleaningFee)

	return StayQuote{
		ApartmentID:          apt.ID,
		CheckIn:              stay.CheckIn,
		CheckOut:             stay.CheckOut,
		Nights:               nights,
		Segments:             segments,
		Subtotal:             apt.Money(subtotal),
		DiscountableSubtotal: apt.Money(discountable),
		DiscountPercentage:   discount.Percentage,
		DiscountAmount:       apt.Money(discount.Amount.Amount),
		PriceAfterDiscount:   afterDiscount,
		ServiceFee:           serviceFee,
		CleaningFee:          cleaning,
		Total:                apt.Money(afterDiscount.Amount + serviceFee.Amount + cleaning.Amount),
		Warnings:             warnings,
	}, nil
}
