package booking

import (
	"time"

	"stayrates/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID   BookingID   `json:"booking_id"`
	ApartmentID string      `json:"apartment_id"`
	GuestID     string      `json:"guest_id"`
	CheckIn     string      `json:"check_in"`
	CheckOut    string      `json:"check_out"`
	QuotedTotal money.Money `json:"quoted_total"`
	At          time.Time   `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID   BookingID   `json:"booking_id"`
	ApartmentID string      `json:"apartment_id"`
	Total       money.Money `json:"total"`
	At          time.Time   `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID   BookingID `json:"booking_id"`
	ApartmentID string    `json:"apartment_id"`
	Reason      string    `json:"reason"`
	At          time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
