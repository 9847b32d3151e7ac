package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/events"
	"stayrates/internal/domain/shared/money"
)

var (
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrApartmentUnset  = errors.New("booking: apartment id required")
)

// ErrConcurrentUpdate means the booking or its apartment changed under a
// concurrent writer. The request may be retried.
var ErrConcurrentUpdate = errors.New("booking: concurrent update detected")

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// QuoteSnapshot freezes the totals a guest agreed to. Later rule edits never
// touch it.
type QuoteSnapshot struct {
	Nights      int         `json:"nights" bson:"nights"`
	Subtotal    money.Money `json:"subtotal" bson:"subtotal"`
	Discount    money.Money `json:"discount" bson:"discount"`
	ServiceFee  money.Money `json:"service_fee" bson:"service_fee"`
	CleaningFee money.Money `json:"cleaning_fee" bson:"cleaning_fee"`
	Total       money.Money `json:"total" bson:"total"`
}

type Booking struct {
	ID          BookingID
	ApartmentID string
	GuestID     string
	Range       daterange.DateRange
	Status      Status
	Quote       QuoteSnapshot
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
}

type CreateParams struct {
	ID          BookingID
	ApartmentID string
	GuestID     string
	Range       daterange.DateRange
	Quote       QuoteSnapshot
	CreatedAt   time.Time
}

// NewBooking creates a pending booking. Pending bookings already hold their dates.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.ApartmentID) == "" {
		return nil, ErrApartmentUnset
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		ApartmentID: params.ApartmentID,
		GuestID:     params.GuestID,
		Range:       params.Range,
		Status:      StatusPending,
		Quote:       params.Quote,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ApartmentID: b.ApartmentID,
		GuestID:     b.GuestID,
		CheckIn:     daterange.Format(b.Range.CheckIn),
		CheckOut:    daterange.Format(b.Range.CheckOut),
		QuotedTotal: b.Quote.Total,
		At:          now,
	})
	return b, nil
}

// Blocks reports whether the booking holds its dates on the calendar.
func (b Booking) Blocks() bool {
	return b.Status == StatusConfirmed || b.Status == StatusPending
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ApartmentID: b.ApartmentID, Total: b.Quote.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ApartmentID: b.ApartmentID, Reason: reason, At: b.UpdatedAt})
	return nil
}
