package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/app/commands"
	"stayrates/internal/app/dto"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/middleware"
	"stayrates/internal/app/outbox"
	domainbooking "stayrates/internal/domain/booking"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/infra/storage/memory"
)

func day(s string) time.Time { return daterange.MustParseDate(s) }

type harness struct {
	store   *memory.Store
	box     *memory.Outbox
	handler *RequestBookingHandler
	bus     commands.Bus
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore("UTC")
	require.NoError(t, store.PutApartment(ctx, rates.Apartment{
		ID: "apt-1", BasePrice: 100, CleaningFee: 40, ServiceFeePercentage: decimal.NewFromInt(10),
		MinStayNights: 2, Currency: "EUR", Active: true,
	}))
	require.NoError(t, store.PutApartment(ctx, rates.Apartment{
		ID: "apt-closed", BasePrice: 100, ServiceFeePercentage: decimal.Zero, Currency: "EUR",
	}))
	require.NoError(t, store.AddOverride(ctx, rates.AvailabilityOverride{
		ApartmentID: "apt-1", Date: day("2025-05-20"), Status: rates.OverrideBlocked,
	}))

	box := memory.NewOutbox()
	factory := memory.NewFactory(store, box)
	var seq int
	var mu sync.Mutex
	handler := &RequestBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    outbox.JSONEventEncoder{},
		Conflicts:  &support.ConflictReporter{Outbox: box, Encoder: outbox.JSONEventEncoder{}},
		IDs: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("bk-%d", seq)
		},
		Now: func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) },
	}
	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, requestBookingKey, handler)
	bus := middleware.ChainCommands(base,
		middleware.Idempotency(memory.NewIdempotencyStore(), middleware.IdempotencyOptions{TTL: time.Hour}),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	return harness{store: store, box: box, handler: handler, bus: bus}
}

func request(in, out, key string) RequestBookingCommand {
	return RequestBookingCommand{ApartmentID: "apt-1", GuestID: "guest-1", CheckIn: day(in), CheckOut: day(out), IdempotencyKeyV: key}
}

func dispatch(h harness, cmd RequestBookingCommand) (*dto.BookingResult, error) {
	return commands.Dispatch[RequestBookingCommand, *dto.BookingResult](context.Background(), h.bus, cmd)
}

func TestRequestBooking_Success(t *testing.T) {
	h := newHarness(t)

	res, err := dispatch(h, request("2025-05-10", "2025-05-13", ""))
	require.NoError(t, err)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, 3, res.Quote.Nights)
	assert.Equal(t, int64(370), res.Quote.Total.Amount)

	stored, err := h.store.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
	assert.Equal(t, int64(370), stored.Quote.Total.Amount)

	pending := h.box.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "booking.requested", pending[0].Name)
	assert.Equal(t, "bk-1", pending[0].Aggregate)
}

func TestRequestBooking_RejectsTakenNights(t *testing.T) {
	h := newHarness(t)
	_, err := dispatch(h, request("2025-05-10", "2025-05-13", ""))
	require.NoError(t, err)

	_, err = dispatch(h, request("2025-05-12", "2025-05-15", ""))
	require.ErrorIs(t, err, ErrDatesUnavailable)
	var unavailable *DatesUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"2025-05-12"}, unavailable.Dates)

	_, err = dispatch(h, request("2025-05-18", "2025-05-22", ""))
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"2025-05-20"}, unavailable.Dates, "blocked days count as taken")

	_, err = dispatch(h, request("2025-05-13", "2025-05-15", ""))
	require.NoError(t, err, "a new stay may start on a checkout day")

	assert.Len(t, h.box.Pending(), 2, "rejected requests leave no events")
}

func TestRequestBooking_Preconditions(t *testing.T) {
	h := newHarness(t)

	_, err := dispatch(h, request("2025-05-10", "2025-05-11", ""))
	var stayErr *pricing.InvalidStayError
	require.ErrorAs(t, err, &stayErr)
	assert.Equal(t, pricing.ConstraintMinStay, stayErr.Constraint)

	cmd := request("2025-05-10", "2025-05-13", "")
	cmd.ApartmentID = "apt-closed"
	_, err = dispatch(h, cmd)
	assert.ErrorIs(t, err, ErrApartmentInactive)

	cmd.ApartmentID = "ghost"
	_, err = dispatch(h, cmd)
	assert.ErrorIs(t, err, rates.ErrApartmentNotFound)

	cmd = request("2025-05-10", "2025-05-13", "")
	cmd.GuestID = ""
	_, err = dispatch(h, cmd)
	assert.ErrorIs(t, err, domainbooking.ErrGuestRequired)

	assert.Empty(t, h.box.Pending())
}

func TestRequestBooking_IdempotentReplay(t *testing.T) {
	h := newHarness(t)

	first, err := dispatch(h, request("2025-06-01", "2025-06-04", "key-1"))
	require.NoError(t, err)
	second, err := dispatch(h, request("2025-06-01", "2025-06-04", "key-1"))
	require.NoError(t, err, "replay must not trip over its own booking")
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.Quote.Total, second.Quote.Total)
	assert.Len(t, h.box.Pending(), 1)

	_, err = dispatch(h, request("2025-06-01", "2025-06-04", "key-2"))
	assert.ErrorIs(t, err, ErrDatesUnavailable)
}

func TestRequestBooking_ConcurrentRequestsBookOnce(t *testing.T) {
	h := newHarness(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = dispatch(h, request("2025-07-01", "2025-07-05", ""))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDatesUnavailable):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)
}

func TestRequestBooking_ManagesOwnUnit(t *testing.T) {
	h := newHarness(t)

	res, err := h.handler.Handle(context.Background(), request("2025-08-01", "2025-08-03", ""))
	require.NoError(t, err)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Len(t, h.box.Pending(), 1, "commit hands events to the relay")

	_, err = (&RequestBookingHandler{}).Handle(context.Background(), request("2025-08-01", "2025-08-03", ""))
	assert.ErrorIs(t, err, ErrUnitOfWorkRequired)
}
