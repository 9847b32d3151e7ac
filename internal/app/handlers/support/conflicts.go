package support

import (
	"context"
	"log/slog"
	"time"

	"stayrates/internal/app/outbox"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/shared/events"
)

// ConflictReporter surfaces rule overlaps found while pricing. Reporting
// never fails the caller; outbox errors are only logged.
type ConflictReporter struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (r *ConflictReporter) Report(ctx context.Context, warnings []pricing.RuleConflictWarning) {
	if r == nil || len(warnings) == 0 {
		return
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	detected := pricing.ConflictEvents(warnings, now())
	evs := make([]events.DomainEvent, 0, len(detected))
	for _, ev := range detected {
		logger.WarnContext(ctx, "pricing rule conflict",
			"apartment_id", ev.ApartmentID,
			"date", ev.Date,
			"kind", ev.Kind,
			"chosen_rule_id", ev.ChosenID,
			"rule_ids", ev.RuleIDs,
			"days", len(warnings),
		)
		evs = append(evs, ev)
	}
	if err := outbox.RecordDomainEvents(ctx, r.Outbox, r.Encoder, evs); err != nil {
		logger.ErrorContext(ctx, "record rule conflict events failed", "error", err)
	}
}
