package pricing

import (
	"strings"
	"time"

	"stayrates/internal/domain/shared/daterange"
)

type RuleConflictDetected struct {
	ApartmentID string    `json:"apartment_id"`
	Date        string    `json:"date"`
	Kind        string    `json:"kind"`
	ChosenID    string    `json:"chosen_rule_id"`
	RuleIDs     []string  `json:"rule_ids"`
	At          time.Time `json:"at"`
}

func (e RuleConflictDetected) EventName() string     { return "pricing.rule_conflict_detected" }
func (e RuleConflictDetected) AggregateID() string   { return e.ApartmentID }
func (e RuleConflictDetected) OccurredAt() time.Time { return e.At }

func (w RuleConflictWarning) Event(at time.Time) RuleConflictDetected {
	return RuleConflictDetected{
		ApartmentID: string(w.ApartmentID),
		Date:        daterange.Format(w.Date),
		Kind:        string(w.Kind),
		ChosenID:    w.ChosenID,
		RuleIDs:     append([]string(nil), w.RuleIDs...),
		At:          at.UTC(),
	}
}

// ConflictEvents converts warnings into one event per distinct rule set, so a
// long stay over the same overlap does not flood the outbox.
func ConflictEvents(warnings []RuleConflictWarning, at time.Time) []RuleConflictDetected {
	seen := make(map[string]struct{}, len(warnings))
	out := make([]RuleConflictDetected, 0, len(warnings))
	for _, w := range warnings {
		key := string(w.Kind) + "|" + strings.Join(w.RuleIDs, ",")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w.Event(at))
	}
	return out
}
