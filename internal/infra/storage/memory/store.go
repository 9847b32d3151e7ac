package memory

import (
	"context"
	"fmt"
	"sync"

	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

// Store keeps apartments, pricing rules and bookings in memory. It serves both
// the rate snapshot reads and the booking repository.
type Store struct {
	mu              sync.RWMutex
	defaultTimeZone string

	apartments map[domainrates.ApartmentID]domainrates.Apartment
	seasons    map[domainrates.ApartmentID][]domainrates.SeasonPriceRule
	events     map[domainrates.ApartmentID][]domainrates.EventPriceRule
	discounts  map[domainrates.ApartmentID][]domainrates.DiscountRule
	overrides  map[domainrates.ApartmentID][]domainrates.AvailabilityOverride
	bookings   map[domainbooking.BookingID]domainbooking.Booking
}

// NewStore builds an empty store. Apartments saved without a time zone get
// defaultTimeZone.
func NewStore(defaultTimeZone string) *Store {
	return &Store{
		defaultTimeZone: defaultTimeZone,
		apartments:      make(map[domainrates.ApartmentID]domainrates.Apartment),
		seasons:         make(map[domainrates.ApartmentID][]domainrates.SeasonPriceRule),
		events:          make(map[domainrates.ApartmentID][]domainrates.EventPriceRule),
		discounts:       make(map[domainrates.ApartmentID][]domainrates.DiscountRule),
		overrides:       make(map[domainrates.ApartmentID][]domainrates.AvailabilityOverride),
		bookings:        make(map[domainbooking.BookingID]domainbooking.Booking),
	}
}

func (s *Store) PutApartment(ctx context.Context, apt domainrates.Apartment) error {
	if apt.TimeZone == "" {
		apt.TimeZone = s.defaultTimeZone
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apartments[apt.ID] = apt
	return nil
}

func (s *Store) AddSeasonRule(ctx context.Context, rule domainrates.SeasonPriceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seasons[rule.ApartmentID] = append(s.seasons[rule.ApartmentID], rule)
	return nil
}

func (s *Store) AddEventRule(ctx context.Context, rule domainrates.EventPriceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[rule.ApartmentID] = append(s.events[rule.ApartmentID], rule)
	return nil
}

func (s *Store) AddDiscountRule(ctx context.Context, rule domainrates.DiscountRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discounts[rule.ApartmentID] = append(s.discounts[rule.ApartmentID], rule)
	return nil
}

func (s *Store) AddOverride(ctx context.Context, ov domainrates.AvailabilityOverride) error {
	ov.Date = daterange.Civil(ov.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[ov.ApartmentID] = append(s.overrides[ov.ApartmentID], ov)
	return nil
}

func (s *Store) Apartment(ctx context.Context, id domainrates.ApartmentID) (domainrates.Apartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apt, ok := s.apartments[id]
	if !ok {
		return domainrates.Apartment{}, fmt.Errorf("%w: %s", domainrates.ErrApartmentNotFound, id)
	}
	return apt, nil
}

func (s *Store) SeasonRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.SeasonPriceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domainrates.SeasonPriceRule(nil), s.seasons[id]...), nil
}

func (s *Store) EventRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.EventPriceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domainrates.EventPriceRule(nil), s.events[id]...), nil
}

func (s *Store) DiscountRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.DiscountRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domainrates.DiscountRule(nil), s.discounts[id]...), nil
}

// Overrides returns the overrides dated inside window, in insertion order.
func (s *Store) Overrides(ctx context.Context, id domainrates.ApartmentID, window daterange.DateRange) ([]domainrates.AvailabilityOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domainrates.AvailabilityOverride
	for _, ov := range s.overrides[id] {
		if window.ContainsDate(ov.Date) {
			out = append(out, ov)
		}
	}
	return out, nil
}

// Bookings returns every booking of the apartment overlapping window,
// whatever its status.
func (s *Store) Bookings(ctx context.Context, id domainrates.ApartmentID, window daterange.DateRange) ([]domainbooking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domainbooking.Booking
	for _, b := range s.bookings {
		if b.ApartmentID == string(id) && b.Range.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
	}
	return &b, nil
}

// Save stores the booking state, bumping its version. Pending events stay on
// the caller's aggregate.
func (s *Store) Save(ctx context.Context, b *domainbooking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bookings[b.ID]; ok && existing.Version != b.Version {
		return fmt.Errorf("memory: save %s: %w", b.ID, domainbooking.ErrConcurrentUpdate)
	}
	b.Version++
	stored := *b
	stored.ClearEvents()
	s.bookings[b.ID] = stored
	return nil
}

var (
	_ domainrates.Store        = (*Store)(nil)
	_ domainbooking.Repository = (*Store)(nil)
)
