// Package worker keeps the spreadsheet mirror in step with the SQLite store.
package worker

import (
	"context"
	"errors"
	"fmt"

	"manageexpense/internal/amqp"
	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/sheets"
	"manageexpense/internal/store"
)

// DefaultBatchSize bounds how many pending expenses one reconcile pass reads.
const DefaultBatchSize = 50

// Source is the part of the SQLite repository the worker reads from.
type Source interface {
	Get(ctx context.Context, id string) (core.Expense, error)
	PendingSync(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id string, version int64) error
}

// SyncWorker applies expense events to a sheets.Mirror.
type SyncWorker struct {
	source    Source
	mirror    sheets.Mirror
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(source Source, mirror sheets.Mirror, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source:    source,
		mirror:    mirror,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one event. Its signature matches
// amqp.Client.ConsumeExpenseEvents; a returned error requeues the delivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		log.FieldExpenseID, ev.ID,
		log.FieldOperation, ev.Op,
		log.FieldVersion, ev.Version)

	switch ev.Op {
	case amqp.OpDelete:
		if err := w.mirror.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete expense %s from mirror: %w", ev.ID, err)
		}
		return nil
	case amqp.OpCreate, amqp.OpUpdate:
		e, err := w.source.Get(ctx, ev.ID)
		if errors.Is(err, store.ErrNotFound) {
			// deleted after the event was published; its delete event follows
			w.logger.InfoContext(ctx, "Expense gone before sync, skipping", log.FieldExpenseID, ev.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense %s: %w", ev.ID, err)
		}
		return w.sync(ctx, e)
	default:
		w.logger.WarnContext(ctx, "Ignoring event with unknown op", log.FieldOperation, ev.Op)
		return nil
	}
}

// sync mirrors the latest stored version. Events may arrive out of order, so
// the stored expense is written rather than whatever version the event named.
func (w *SyncWorker) sync(ctx context.Context, e core.Expense) error {
	if err := w.mirror.Upsert(ctx, e); err != nil {
		return fmt.Errorf("mirror expense %s: %w", e.ID, err)
	}
	if err := w.source.MarkSynced(ctx, e.ID, e.Version); err != nil {
		// the row is written; the next reconcile rewrites it harmlessly
		w.logger.ErrorContext(ctx, "Failed to mark expense as synced",
			log.FieldExpenseID, e.ID, log.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Expense mirrored",
		log.FieldExpenseID, e.ID,
		log.FieldVersion, e.Version,
		log.FieldAmountCents, e.Amount.Cents)
	return nil
}

// Reconcile mirrors every expense whose latest version is not yet synced.
// It recovers from lost events and worker downtime.
func (w *SyncWorker) Reconcile(ctx context.Context) (synced int, err error) {
	var failed int
	seen := make(map[string]int64)
	for {
		pending, err := w.source.PendingSync(ctx, w.batchSize)
		if err != nil {
			return synced, fmt.Errorf("get pending expenses: %w", err)
		}
		progressed := 0
		for _, e := range pending {
			if err := ctx.Err(); err != nil {
				return synced, err
			}
			if v, ok := seen[e.ID]; ok && v >= e.Version {
				continue
			}
			seen[e.ID] = e.Version
			if err := w.sync(ctx, e); err != nil {
				w.logger.ErrorContext(ctx, "Failed to sync pending expense",
					log.FieldExpenseID, e.ID, log.FieldError, err)
				failed++
				continue
			}
			synced++
			progressed++
		}
		// a full page with nothing new means marks are not sticking
		if len(pending) < w.batchSize || progressed == 0 {
			break
		}
	}
	w.logger.InfoContext(ctx, "Reconcile completed", "synced", synced, "errors", failed)
	return synced, nil
}
