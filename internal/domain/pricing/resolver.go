package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

type RateType string

const (
	RateOverride RateType = "OVERRIDE"
	RateEvent    RateType = "EVENT"
	RateSeason   RateType = "SEASON"
	RateBase     RateType = "BASE"
)

// Rate is the effective nightly price of one day and where it came from.
type Rate struct {
	Date     time.Time
	Price    money.Money
	Type     RateType
	RuleID   string
	RuleName string
	// Conflict is set when overlapping rules competed for the day.
	Conflict *RuleConflictWarning
}

// RuleConflictWarning reports overlapping rules. The resolution is still
// deterministic; the warning exists so the data can be fixed.
type RuleConflictWarning struct {
	ApartmentID rates.ApartmentID
	Date        time.Time
	Kind        RateType
	ChosenID    string
	// RuleIDs lists every competing rule, winner first.
	RuleIDs []string
}

func (w RuleConflictWarning) String() string {
	return fmt.Sprintf("pricing: %s rules %s overlap on %s for apartment %s, %s applied",
		strings.ToLower(string(w.Kind)), strings.Join(w.RuleIDs, ","), daterange.Format(w.Date), w.ApartmentID, w.ChosenID)
}

// ResolveRate determines the nightly price for day. Precedence is a price
// override, then an event rule, then the highest-priority season rule, then
// the base price. It never fails.
func ResolveRate(apt rates.Apartment, rules rates.RuleSet, day time.Time) Rate {
	day = daterange.Civil(day)

	if ov, ok := rules.OverrideOn(day); ok && ov.PriceOverride != nil && belongs(ov.ApartmentID, apt.ID) {
		return Rate{Date: day, Price: apt.Money(*ov.PriceOverride), Type: RateOverride}
	}
	if rate, ok := resolveEvent(apt, rules.Events, day); ok {
		return rate
	}
	if rate, ok := resolveSeason(apt, rules.Seasons, day); ok {
		return rate
	}
	return Rate{Date: day, Price: apt.Money(apt.BasePrice), Type: RateBase}
}

func resolveEvent(apt rates.Apartment, rules []rates.EventPriceRule, day time.Time) (Rate, bool) {
	var candidates []rates.EventPriceRule
	for _, r := range rules {
		if belongs(r.ApartmentID, apt.ID) && r.Covers(day) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Rate{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return rates.NewerThan(candidates[i].CreatedAt, candidates[i].ID, candidates[j].CreatedAt, candidates[j].ID)
	})
	win := candidates[0]
	rate := Rate{Date: day, Price: apt.Money(win.Price), Type: RateEvent, RuleID: win.ID, RuleName: win.EventName}
	if len(candidates) > 1 {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		rate.Conflict = &RuleConflictWarning{ApartmentID: apt.ID, Date: day, Kind: RateEvent, ChosenID: win.ID, RuleIDs: ids}
	}
	return rate, true
}

func resolveSeason(apt rates.Apartment, rules []rates.SeasonPriceRule, day time.Time) (Rate, bool) {
	var candidates []rates.SeasonPriceRule
	for _, r := range rules {
		if belongs(r.ApartmentID, apt.ID) && r.Covers(day) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Rate{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return rates.NewerThan(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	win := candidates[0]
	rate := Rate{Date: day, Price: apt.Money(win.Price), Type: RateSeason, RuleID: win.ID, RuleName: win.Name}

	// distinct priorities are how seasons are meant to nest; only a tie at
	// the top is a data problem.
	var tied []string
	for _, c := range candidates {
		if c.Priority == win.Priority {
			tied = append(tied, c.ID)
		}
	}
	if len(tied) > 1 {
		rate.Conflict = &RuleConflictWarning{ApartmentID: apt.ID, Date: day, Kind: RateSeason, ChosenID: win.ID, RuleIDs: tied}
	}
	return rate, true
}

// belongs accepts rules scoped to the apartment or left unscoped by the store.
func belongs(ruleApartment, apartment rates.ApartmentID) bool {
	return ruleApartment == "" || ruleApartment == apartment
}
