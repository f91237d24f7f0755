package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ledgerdash/internal/amqp"
	"ledgerdash/internal/cache"
	"ledgerdash/internal/log"
	"ledgerdash/internal/sheets"
)

const (
	seenCapacity = 10000
	seenTTL      = time.Hour
)

// ActivityWorker writes activity events to a sheet, one row per event.
// Events redelivered after a successful append are skipped by id.
type ActivityWorker struct {
	sink   sheets.ActivityWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger

	appended   atomic.Int64
	duplicates atomic.Int64
	failures   atomic.Int64
}

func NewActivityWorker(sink sheets.ActivityWriter, logger *log.Logger) *ActivityWorker {
	return &ActivityWorker{
		sink:   sink,
		seen:   cache.NewLRUCache[string](seenCapacity, seenTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Seen exposes the duplicate filter so its expired entries can be cleaned.
func (w *ActivityWorker) Seen() cache.Cleaner { return w.seen }

// Prepare makes sure the sink is ready before the first event arrives.
func (w *ActivityWorker) Prepare(ctx context.Context) error {
	if h, ok := w.sink.(sheets.HeaderEnsurer); ok {
		if err := h.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("prepare activity sheet: %w", err)
		}
	}
	return nil
}

// HandleActivity appends ev to the sink. An error leaves the event for
// redelivery.
func (w *ActivityWorker) HandleActivity(ctx context.Context, ev *amqp.ActivityEvent) error {
	if _, dup := w.seen.Get(ev.ID); dup {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping duplicate activity event", "event_id", ev.ID)
		return nil
	}

	ref, err := w.sink.AppendActivity(ctx, RowFromEvent(ev))
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("append activity %s: %w", ev.ID, err)
	}
	w.seen.Set(ev.ID, ref)
	w.appended.Add(1)

	w.logger.InfoContext(ctx, "Activity event recorded",
		"event_id", ev.ID,
		log.FieldEventType, ev.Type,
		"sheets_ref", ref)
	return nil
}

// Stats returns appended, duplicate and failed counts.
func (w *ActivityWorker) Stats() (appended, duplicates, failures int64) {
	return w.appended.Load(), w.duplicates.Load(), w.failures.Load()
}

func RowFromEvent(ev *amqp.ActivityEvent) sheets.ActivityRow {
	return sheets.ActivityRow{
		EventID:   ev.ID,
		Type:      ev.Type,
		At:        ev.At,
		UserID:    ev.UserID,
		Username:  ev.Username,
		CompanyID: ev.CompanyID,
		Resource:  ev.Resource,
		RecordID:  ev.RecordID,
	}
}
