package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

var created = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func day(s string) time.Time { return daterange.MustParseDate(s) }

func price(v int64) *int64 { return &v }

func testApartment() rates.Apartment {
	return rates.Apartment{
		ID:                   "apt-1",
		BasePrice:            120,
		CleaningFee:          50,
		ServiceFeePercentage: decimal.NewFromInt(10),
		MinStayNights:        1,
		Currency:             "EUR",
		Active:               true,
	}
}

func season(id, name string, p int64, start, end string, priority int) rates.SeasonPriceRule {
	return rates.SeasonPriceRule{
		ID: id, ApartmentID: "apt-1", Name: name, Price: p,
		StartDate: day(start), EndDate: day(end), Priority: priority, Active: true, CreatedAt: created,
	}
}

func event(id, name string, p int64, start, end string) rates.EventPriceRule {
	return rates.EventPriceRule{
		ID: id, ApartmentID: "apt-1", EventName: name, Price: p,
		StartDate: day(start), EndDate: day(end), Active: true, CreatedAt: created,
	}
}

func TestResolveRate_Precedence(t *testing.T) {
	apt := testApartment()
	rules := rates.RuleSet{
		Seasons: []rates.SeasonPriceRule{season("s-july", "July", 200, "2025-07-01", "2025-08-01", 1)},
		Events:  []rates.EventPriceRule{event("e-fest", "Festival", 500, "2025-07-14", "2025-07-17")},
		Overrides: []rates.AvailabilityOverride{
			{ApartmentID: "apt-1", Date: day("2025-07-16"), Status: rates.OverrideAvailable, PriceOverride: price(999)},
			{ApartmentID: "apt-1", Date: day("2025-07-20"), Status: rates.OverrideBlocked},
		},
	}

	t.Run("EventBeatsSeason", func(t *testing.T) {
		r := ResolveRate(apt, rules, day("2025-07-15"))
		assert.Equal(t, int64(500), r.Price.Amount)
		assert.Equal(t, RateEvent, r.Type)
		assert.Equal(t, "Festival", r.RuleName)
		assert.Nil(t, r.Conflict)
	})

	t.Run("OverrideBeatsEvent", func(t *testing.T) {
		r := ResolveRate(apt, rules, day("2025-07-16"))
		assert.Equal(t, int64(999), r.Price.Amount)
		assert.Equal(t, RateOverride, r.Type)
		assert.Empty(t, r.RuleName)
	})

	t.Run("OverrideWithoutPriceFallsThrough", func(t *testing.T) {
		r := ResolveRate(apt, rules, day("2025-07-20"))
		assert.Equal(t, RateSeason, r.Type)
		assert.Equal(t, int64(200), r.Price.Amount)
	})

	t.Run("SeasonBeatsBase", func(t *testing.T) {
		r := ResolveRate(apt, rules, day("2025-07-02"))
		assert.Equal(t, RateSeason, r.Type)
		assert.Equal(t, "July", r.RuleName)
		assert.Equal(t, "EUR", r.Price.Currency)
	})

	t.Run("BaseOtherwise", func(t *testing.T) {
		r := ResolveRate(apt, rules, day("2025-08-01"))
		assert.Equal(t, RateBase, r.Type)
		assert.Equal(t, int64(120), r.Price.Amount)
		assert.Empty(t, r.RuleID)
	})
}

func TestResolveRate_SeasonBoundariesAreEndExclusive(t *testing.T) {
	apt := testApartment()
	rules := rates.RuleSet{Seasons: []rates.SeasonPriceRule{season("s1", "Summer", 180, "2025-06-01", "2025-09-01", 1)}}

	assert.Equal(t, RateBase, ResolveRate(apt, rules, day("2025-05-31")).Type)
	assert.Equal(t, RateSeason, ResolveRate(apt, rules, day("2025-06-01")).Type)
	assert.Equal(t, RateSeason, ResolveRate(apt, rules, day("2025-08-31")).Type)
	assert.Equal(t, RateBase, ResolveRate(apt, rules, day("2025-09-01")).Type)
}

func TestResolveRate_IgnoresInactiveAndForeignRules(t *testing.T) {
	apt := testApartment()
	inactive := event("e-off", "Cancelled gig", 900, "2025-07-01", "2025-07-31")
	inactive.Active = false
	foreign := season("s-other", "Other flat", 300, "2025-07-01", "2025-07-31", 5)
	foreign.ApartmentID = "apt-2"

	r := ResolveRate(apt, rates.RuleSet{
		Events:  []rates.EventPriceRule{inactive},
		Seasons: []rates.SeasonPriceRule{foreign},
	}, day("2025-07-10"))
	assert.Equal(t, RateBase, r.Type)
}

func TestResolveRate_HighestPrioritySeasonWins(t *testing.T) {
	apt := testApartment()
	rules := rates.RuleSet{Seasons: []rates.SeasonPriceRule{
		season("s-summer", "Summer", 180, "2025-06-01", "2025-09-01", 1),
		season("s-peak", "Peak", 260, "2025-07-20", "2025-08-10", 5),
	}}

	r := ResolveRate(apt, rules, day("2025-07-25"))
	assert.Equal(t, "Peak", r.RuleName)
	assert.Nil(t, r.Conflict, "nested seasons with distinct priorities are not a conflict")
}

func TestResolveRate_TiesBreakTowardNewestRule(t *testing.T) {
	apt := testApartment()
	older := season("s-a", "Older", 150, "2025-07-01", "2025-08-01", 2)
	newer := season("s-b", "Newer", 170, "2025-07-10", "2025-07-20", 2)
	newer.CreatedAt = created.Add(time.Hour)

	r := ResolveRate(apt, rates.RuleSet{Seasons: []rates.SeasonPriceRule{older, newer}}, day("2025-07-12"))
	assert.Equal(t, "Newer", r.RuleName)
	require.NotNil(t, r.Conflict)
	assert.Equal(t, RateSeason, r.Conflict.Kind)
	assert.Equal(t, "s-b", r.Conflict.ChosenID)
	assert.Equal(t, []string{"s-b", "s-a"}, r.Conflict.RuleIDs)

	t.Run("SameCreationTimeUsesID", func(t *testing.T) {
		e1 := event("e-1", "One", 400, "2025-07-01", "2025-07-05")
		e2 := event("e-2", "Two", 450, "2025-07-03", "2025-07-08")
		rules := rates.RuleSet{Events: []rates.EventPriceRule{e2, e1}}
		for i := 0; i < 3; i++ {
			r := ResolveRate(apt, rules, day("2025-07-04"))
			assert.Equal(t, "Two", r.RuleName)
			require.NotNil(t, r.Conflict)
			assert.Equal(t, RateEvent, r.Conflict.Kind)
			assert.Contains(t, r.Conflict.String(), "e-2,e-1")
		}
	})
}

func TestResolveRate_IsDeterministic(t *testing.T) {
	apt := testApartment()
	rules := rates.RuleSet{
		Seasons: []rates.SeasonPriceRule{
			season("s1", "A", 150, "2025-01-01", "2026-01-01", 1),
			season("s2", "B", 160, "2025-03-01", "2025-10-01", 1),
		},
		Events: []rates.EventPriceRule{event("e1", "Fair", 400, "2025-05-01", "2025-05-04")},
	}
	valid := map[RateType]bool{RateOverride: true, RateEvent: true, RateSeason: true, RateBase: true}
	for d := day("2024-12-25"); d.Before(day("2026-01-05")); d = daterange.NextDay(d) {
		first := ResolveRate(apt, rules, d)
		second := ResolveRate(apt, rules, d)
		assert.True(t, valid[first.Type])
		assert.Equal(t, first, second)
	}
}
