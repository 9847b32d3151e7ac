package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

func TestNewBooking(t *testing.T) {
	dr, err := daterange.Parse("2025-03-10", "2025-03-13")
	require.NoError(t, err)
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		b, err := NewBooking(CreateParams{
			ID: "b-1", ApartmentID: "apt-1", GuestID: "guest-1", Range: dr,
			Quote:     QuoteSnapshot{Nights: 3, Total: money.Must(420, "EUR")},
			CreatedAt: now,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, b.Status)
		assert.True(t, b.Blocks())

		evs := b.Drain()
		require.Len(t, evs, 1)
		requested, ok := evs[0].(BookingRequested)
		require.True(t, ok)
		assert.Equal(t, "2025-03-10", requested.CheckIn)
		assert.Equal(t, "2025-03-13", requested.CheckOut)
		assert.Equal(t, int64(420), requested.QuotedTotal.Amount)
		assert.Empty(t, b.PendingEvents())
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := NewBooking(CreateParams{ID: "b", GuestID: "g", Range: dr})
		assert.ErrorIs(t, err, ErrApartmentUnset)
		_, err = NewBooking(CreateParams{ID: "b", ApartmentID: "a", Range: dr})
		assert.ErrorIs(t, err, ErrGuestRequired)
		_, err = NewBooking(CreateParams{ID: "b", ApartmentID: "a", GuestID: "g"})
		assert.ErrorIs(t, err, daterange.ErrInvalidRange)
	})
}

func TestBookingLifecycle(t *testing.T) {
	dr, _ := daterange.Parse("2025-03-10", "2025-03-13")
	now := time.Now()
	b, err := NewBooking(CreateParams{ID: "b-1", ApartmentID: "apt-1", GuestID: "g", Range: dr, CreatedAt: now})
	require.NoError(t, err)
	b.ClearEvents()

	require.NoError(t, b.Confirm(now))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.True(t, b.Blocks())
	assert.ErrorIs(t, b.Confirm(now), ErrInvalidState)

	require.NoError(t, b.Cancel("guest request", now))
	assert.False(t, b.Blocks())
	assert.ErrorIs(t, b.Cancel("again", now), ErrInvalidState)

	names := make([]string, 0)
	for _, ev := range b.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{"booking.confirmed", "booking.cancelled"}, names)
}
