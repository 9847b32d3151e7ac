package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "stayrates/internal/app/outbox"
	relay "stayrates/internal/infra/outbox"
)

type txBufferKey struct{}

type txBuffer struct {
	records []appoutbox.EventRecord
}

// Outbox keeps event records in memory. Records added inside a unit of work
// become visible to the relay only when that unit commits; records added
// outside one are queued at once.
type Outbox struct {
	mu      sync.Mutex
	entries []*relay.EventDocument
	index   map[string]*relay.EventDocument
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{index: make(map[string]*relay.EventDocument), now: func() time.Time { return time.Now().UTC() }}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if buf, ok := ctx.Value(txBufferKey{}).(*txBuffer); ok && buf != nil {
		buf.records = append(buf.records, record)
		return nil
	}
	o.enqueue(record)
	return nil
}

// Flush is a no-op; commit already hands records to the relay.
func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) enqueue(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range records {
		doc := &relay.EventDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     rec.Payload,
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     rec.Headers,
			State:       relay.StateNew,
			NextAttempt: now,
		}
		o.entries = append(o.entries, doc)
		o.index[doc.ID] = doc
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*relay.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, doc := range o.entries {
		if (doc.State == relay.StateNew || doc.State == relay.StateFailed) && !doc.NextAttempt.After(now) {
			doc.State = relay.StateClaimed
			doc.ClaimedBy = workerID
			doc.ClaimedAt = now
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.index[id]; ok {
		doc.State = relay.StateSent
		doc.SentAt = o.now()
	}
	o.compact()
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.index[id]; ok {
		doc.State = relay.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	}
	return nil
}

// Pending returns copies of the records not yet relayed.
func (o *Outbox) Pending() []relay.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]relay.EventDocument, 0, len(o.entries))
	for _, doc := range o.entries {
		if doc.State != relay.StateSent {
			out = append(out, *doc)
		}
	}
	return out
}

// compact drops sent records so the queue does not grow without bound.
func (o *Outbox) compact() {
	kept := o.entries[:0]
	for _, doc := range o.entries {
		if doc.State == relay.StateSent {
			delete(o.index, doc.ID)
			continue
		}
		kept = append(kept, doc)
	}
	o.entries = kept
}

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ relay.Queue      = (*Outbox)(nil)
)
