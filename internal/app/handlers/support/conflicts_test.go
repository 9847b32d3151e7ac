package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/app/outbox"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/shared/daterange"
)

type recordingOutbox struct {
	records []outbox.EventRecord
	err     error
}

func (o *recordingOutbox) Add(ctx context.Context, rec outbox.EventRecord) error {
	if o.err != nil {
		return o.err
	}
	o.records = append(o.records, rec)
	return nil
}

func (o *recordingOutbox) Flush(context.Context) error { return nil }

func warning(date string, ids ...string) pricing.RuleConflictWarning {
	return pricing.RuleConflictWarning{
		ApartmentID: "apt-1", Date: daterange.MustParseDate(date), Kind: pricing.RateEvent, ChosenID: ids[0], RuleIDs: ids,
	}
}

func TestConflictReporter_Report(t *testing.T) {
	var logs bytes.Buffer
	box := &recordingOutbox{}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &ConflictReporter{
		Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
		Outbox:  box,
		Encoder: outbox.JSONEventEncoder{IDGenerator: func() string { return "ev-1" }},
		Now:     func() time.Time { return at },
	}

	r.Report(context.Background(), []pricing.RuleConflictWarning{
		warning("2025-06-01", "e2", "e1"),
		warning("2025-06-02", "e2", "e1"),
	})

	require.Len(t, box.records, 1)
	rec := box.records[0]
	assert.Equal(t, "ev-1", rec.ID)
	assert.Equal(t, "pricing.rule_conflict_detected", rec.Name)
	assert.Equal(t, "apt-1", rec.Aggregate)
	assert.Equal(t, at, rec.OccurredAt)

	var payload pricing.RuleConflictDetected
	require.NoError(t, json.Unmarshal(rec.Payload, &payload))
	assert.Equal(t, "2025-06-01", payload.Date)
	assert.Equal(t, []string{"e2", "e1"}, payload.RuleIDs)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "chosen_rule_id=e2")
}

func TestConflictReporter_NeverFails(t *testing.T) {
	var logs bytes.Buffer
	r := &ConflictReporter{
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		Outbox: &recordingOutbox{err: errors.New("outbox full")},
	}
	r.Report(context.Background(), []pricing.RuleConflictWarning{warning("2025-06-01", "e2", "e1")})
	assert.Contains(t, logs.String(), "outbox full")

	var nilReporter *ConflictReporter
	assert.NotPanics(t, func() {
		nilReporter.Report(context.Background(), []pricing.RuleConflictWarning{warning("2025-06-01", "e2", "e1")})
	})
}
