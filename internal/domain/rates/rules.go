package rates

import (
	"time"

	"github.com/shopspring/decimal"

	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

type ApartmentID string

// Apartment carries the pricing attributes of one rentable unit. Amounts are
// in the smallest unit of Currency.
type Apartment struct {
	ID                   ApartmentID
	BasePrice            int64
	CleaningFee          int64
	ServiceFeePercentage decimal.Decimal
	MinStayNights        int
	// MaxStayNights of zero means no upper bound.
	MaxStayNights int
	// BookingHorizon is the latest allowed checkout day; zero means unbounded.
	BookingHorizon time.Time
	Currency       string
	TimeZone       string
	Active         bool
}

// Location resolves the property's time zone, falling back to UTC.
func (a Apartment) Location() *time.Location {
	if a.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDay converts an instant into the property-local calendar day.
func (a Apartment) LocalDay(t time.Time) time.Time {
	return daterange.Day(t, a.Location())
}

// Money wraps a minor-unit amount in the apartment currency.
func (a Apartment) Money(amount int64) money.Money {
	return money.Money{Amount: amount, Currency: a.Currency}
}

type SeasonPriceRule struct {
	ID          string
	ApartmentID ApartmentID
	Name        string
	Price       int64
	StartDate   time.Time
	EndDate     time.Time
	Priority    int
	Active      bool
	CreatedAt   time.Time
}

func (r SeasonPriceRule) Period() daterange.DateRange {
	return period(r.StartDate, r.EndDate)
}

// Covers reports whether the rule is active and its period holds day.
func (r SeasonPriceRule) Covers(day time.Time) bool {
	return r.Active && r.Period().ContainsDate(day)
}

type EventPriceRule struct {
	ID          string
	ApartmentID ApartmentID
	EventName   string
	Price       int64
	StartDate   time.Time
	EndDate     time.Time
	Active      bool
	CreatedAt   time.Time
}

func (r EventPriceRule) Period() daterange.DateRange {
	return period(r.StartDate, r.EndDate)
}

func (r EventPriceRule) Covers(day time.Time) bool {
	return r.Active && r.Period().ContainsDate(day)
}

type DiscountRule struct {
	ID          string
	ApartmentID ApartmentID
	MinNights   int
	Percentage  decimal.Decimal
	Active      bool
}

type OverrideStatus string

const (
	OverrideAvailable OverrideStatus = "AVAILABLE"
	OverrideBlocked   OverrideStatus = "BLOCKED"
)

// AvailabilityOverride is an administrator exception for a single day.
type AvailabilityOverride struct {
	ApartmentID   ApartmentID
	Date          time.Time
	Status        OverrideStatus
	PriceOverride *int64
	Note          string
}

// RuleSet is an immutable snapshot of everything that prices a day.
type RuleSet struct {
	Seasons   []SeasonPriceRule
	Events    []EventPriceRule
	Discounts []DiscountRule
	Overrides []AvailabilityOverride
}

// OverrideOn returns the override for day. When the data holds several rows
// for the same day the last one wins.
func (rs RuleSet) OverrideOn(day time.Time) (AvailabilityOverride, bool) {
	day = daterange.Civil(day)
	for i := len(rs.Overrides) - 1; i >= 0; i-- {
		if daterange.Civil(rs.Overrides[i].Date).Equal(day) {
			return rs.Overrides[i], true
		}
	}
	return AvailabilityOverride{}, false
}

// NewerThan orders rules by creation: later createdAt first, then the
// lexically greater id, so the order is total.
func NewerThan(aCreated time.Time, aID string, bCreated time.Time, bID string) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}

func period(start, end time.Time) daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.Civil(start), CheckOut: daterange.Civil(end)}
}
