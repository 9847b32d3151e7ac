package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

func TestApartmentDocument(t *testing.T) {
	apt := domainrates.Apartment{
		ID:                   "apt-1",
		BasePrice:            120,
		CleaningFee:          50,
		ServiceFeePercentage: decimal.RequireFromString("12.5"),
		MinStayNights:        2,
		BookingHorizon:       daterange.MustParseDate("2026-06-30"),
		Currency:             "EUR",
		Active:               true,
	}
	doc := newApartmentDocument(apt)
	assert.Equal(t, "12.5", doc.ServiceFeePercentage)
	assert.Equal(t, "2026-06-30", doc.BookingHorizon)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded apartmentDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got, err := decoded.toDomain("Europe/Rome")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", got.TimeZone)
	assert.True(t, apt.ServiceFeePercentage.Equal(got.ServiceFeePercentage))
	assert.Equal(t, apt.BookingHorizon, got.BookingHorizon)
	assert.Equal(t, apt.MinStayNights, got.MinStayNights)

	decoded.ServiceFeePercentage = "ten"
	_, err = decoded.toDomain("")
	assert.Error(t, err)
}

func TestRuleDocumentsKeepDays(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	season := domainrates.SeasonPriceRule{
		ID: "s1", ApartmentID: "apt-1", Name: "Summer", Price: 180,
		StartDate: daterange.MustParseDate("2025-07-01"), EndDate: daterange.MustParseDate("2025-09-01"),
		Priority: 2, Active: true, CreatedAt: created,
	}
	sdoc := newSeasonDocument(season)
	assert.Equal(t, "2025-07-01", sdoc.StartDate)
	gotSeason, err := sdoc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, season, gotSeason)

	price := int64(75)
	ov := domainrates.AvailabilityOverride{ApartmentID: "apt-1", Date: daterange.MustParseDate("2025-07-04"), Status: domainrates.OverrideAvailable, PriceOverride: &price}
	odoc := newOverrideDocument(ov, created)
	assert.Equal(t, "2025-07-04", odoc.Date)
	gotOv, err := odoc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, ov, gotOv)

	ddoc := newDiscountDocument(domainrates.DiscountRule{ID: "d1", MinNights: 7, Percentage: decimal.RequireFromString("7.5"), Active: true})
	assert.Equal(t, "7.5", ddoc.Percentage)
	gotDiscount, err := ddoc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, "7.5", gotDiscount.Percentage.String())

	bad := eventDocument{ID: "e1", StartDate: "2025/07/01", EndDate: "2025-07-02"}
	_, err = bad.toDomain()
	assert.ErrorIs(t, err, daterange.ErrInvalidDate)
}

func TestBookingDocument(t *testing.T) {
	dr, err := daterange.Parse("2025-03-10", "2025-03-13")
	require.NoError(t, err)
	b := &domainbooking.Booking{
		ID:          "b-1",
		ApartmentID: "apt-1",
		GuestID:     "g-1",
		Range:       dr,
		Status:      domainbooking.StatusPending,
		Quote:       domainbooking.QuoteSnapshot{Nights: 3, Total: money.Must(420, "EUR")},
		CreatedAt:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Version:     3,
	}
	doc := newBookingDocument(b)
	assert.Equal(t, "2025-03-10", doc.CheckIn)
	assert.Equal(t, "2025-03-13", doc.CheckOut)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got, err := decoded.toDomain()
	require.NoError(t, err)
	assert.Equal(t, b.Range, got.Range)
	assert.Equal(t, int64(420), got.Quote.Total.Amount)
	assert.Equal(t, "EUR", got.Quote.Total.Currency)
	assert.Equal(t, int64(3), got.Version)
}
