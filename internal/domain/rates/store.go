package rates

import (
	"context"
	"errors"
	"fmt"

	"stayrates/internal/domain/booking"
	"stayrates/internal/domain/shared/daterange"
)

var ErrApartmentNotFound = errors.New("rates: apartment not found")

// Store is the read side of rule persistence. Implementations must answer
// every call of one snapshot from a consistent view (one read transaction).
type Store interface {
	Apartment(ctx context.Context, id ApartmentID) (Apartment, error)
	SeasonRules(ctx context.Context, id ApartmentID) ([]SeasonPriceRule, error)
	EventRules(ctx context.Context, id ApartmentID) ([]EventPriceRule, error)
	DiscountRules(ctx context.Context, id ApartmentID) ([]DiscountRule, error)
	Overrides(ctx context.Context, id ApartmentID, window daterange.DateRange) ([]AvailabilityOverride, error)
	Bookings(ctx context.Context, id ApartmentID, window daterange.DateRange) ([]booking.Booking, error)
}

// Snapshot is everything the engine needs for one apartment and window,
// loaded once and computed over many times.
type Snapshot struct {
	Apartment Apartment
	Rules     RuleSet
	Bookings  []booking.Booking
	Window    daterange.DateRange
}

// LoadSnapshot reads a consistent snapshot for the window. The caller is
// expected to run it inside a single unit of work.
func LoadSnapshot(ctx context.Context, store Store, id ApartmentID, window daterange.DateRange) (Snapshot, error) {
	apt, err := store.Apartment(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	seasons, err := store.SeasonRules(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load season rules: %w", err)
	}
	evs, err := store.EventRules(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load event rules: %w", err)
	}
	discounts, err := store.DiscountRules(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load discount rules: %w", err)
	}
	overrides, err := store.Overrides(ctx, id, window)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load overrides: %w", err)
	}
	bookings, err := store.Bookings(ctx, id, window)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load bookings: %w", err)
	}
	return Snapshot{
		Apartment: apt,
		Rules: RuleSet{
			Seasons:   seasons,
			Events:    evs,
			Discounts: discounts,
			Overrides: overrides,
		},
		Bookings: bookings,
		Window:   window,
	}, nil
}
