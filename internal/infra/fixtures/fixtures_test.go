package fixtures

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

type recordingSink struct {
	apartments []domainrates.Apartment
	seasons    []domainrates.SeasonPriceRule
	events     []domainrates.EventPriceRule
	discounts  []domainrates.DiscountRule
	overrides  []domainrates.AvailabilityOverride
}

func (s *recordingSink) PutApartment(_ context.Context, apt domainrates.Apartment) error {
	s.apartments = append(s.apartments, apt)
	return nil
}

func (s *recordingSink) AddSeasonRule(_ context.Context, r domainrates.SeasonPriceRule) error {
	s.seasons = append(s.seasons, r)
	return nil
}

func (s *recordingSink) AddEventRule(_ context.Context, r domainrates.EventPriceRule) error {
	s.events = append(s.events, r)
	return nil
}

func (s *recordingSink) AddDiscountRule(_ context.Context, r domainrates.DiscountRule) error {
	s.discounts = append(s.discounts, r)
	return nil
}

func (s *recordingSink) AddOverride(_ context.Context, ov domainrates.AvailabilityOverride) error {
	s.overrides = append(s.overrides, ov)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFile_RepositoryFixtures(t *testing.T) {
	sink := &recordingSink{}
	path := filepath.Join("..", "..", "..", "data", "fixtures.json")
	require.NoError(t, LoadFile(context.Background(), path, sink, discardLogger()))

	require.Len(t, sink.apartments, 2)
	alfama := sink.apartments[0]
	assert.Equal(t, domainrates.ApartmentID("apt-lisbon-alfama"), alfama.ID)
	assert.True(t, alfama.Active)
	assert.Equal(t, "10", alfama.ServiceFeePercentage.String())
	assert.Equal(t, daterange.MustParseDate("2027-12-31"), alfama.BookingHorizon)
	assert.Equal(t, 0, sink.apartments[1].MaxStayNights)

	assert.Len(t, sink.seasons, 3)
	assert.Len(t, sink.events, 3)
	assert.Len(t, sink.discounts, 3)
	require.Len(t, sink.overrides, 3)
	require.NotNil(t, sink.overrides[2].PriceOverride)
	assert.Equal(t, int64(89), *sink.overrides[2].PriceOverride)
}

func TestLoadFile_SkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.json")
	content := `{
	  "apartments": [
	    {"id": "ok", "base_price": 100, "currency": "EUR", "active": false},
	    {"id": "no-currency", "base_price": 100},
	    {"id": "bad-tz", "base_price": 100, "currency": "EUR", "time_zone": "Nowhere/Land"}
	  ],
	  "season_rules": [{"id": "s-bad", "apartment_id": "ok", "start_date": "2026-09-01", "end_date": "2026-07-01"}],
	  "discount_rules": [{"id": "d-bad", "apartment_id": "ok", "min_nights": 0, "percentage": "10"}],
	  "overrides": [{"apartment_id": "ok", "date": "2026-01-01", "status": "MAYBE"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sink := &recordingSink{}
	require.NoError(t, LoadFile(context.Background(), path, sink, discardLogger()))
	require.Len(t, sink.apartments, 1)
	assert.False(t, sink.apartments[0].Active)
	assert.Empty(t, sink.seasons)
	assert.Empty(t, sink.discounts)
	assert.Empty(t, sink.overrides)
}

func TestLoadFile_MissingAndMalformed(t *testing.T) {
	sink := &recordingSink{}
	assert.NoError(t, LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), sink, discardLogger()))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, LoadFile(context.Background(), path, sink, discardLogger()))
}
