package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"manageexpense/internal/amqp"
	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/store"
)

// EventPublisher announces committed mutations to other processes.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense operations across the store and AMQP.
// It implements store.Store so screens can use it in place of a bare store.
type ExpenseService struct {
	storage   store.Store
	publisher EventPublisher
}

// NewExpenseService wires a store with an optional publisher (nil disables
// events).
func NewExpenseService(storage store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// Add saves an expense and publishes a create event.
func (s *ExpenseService) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.storage.Add(ctx, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	events(ctx).LogExpenseMutation(ctx, log.OpCreate, e)
	s.publish(ctx, amqp.OpCreate, e.ID, e.Version)
	return e, nil
}

// Update replaces the editable fields and publishes an update event.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.storage.Update(ctx, id, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	events(ctx).LogExpenseMutation(ctx, log.OpUpdate, e)
	s.publish(ctx, amqp.OpUpdate, e.ID, e.Version)
	return e, nil
}

// Delete removes the expense and publishes a delete event.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	events(ctx).LogExpenseMutation(ctx, log.OpDelete, core.Expense{ID: id})
	s.publish(ctx, amqp.OpDelete, id, 0)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.storage.Get(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.storage.List(ctx)
}

func events(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentExpense))
}

// publish never fails the caller: the mutation is already committed.
func (s *ExpenseService) publish(ctx context.Context, op amqp.Op, id string, version int64) {
	if s.publisher == nil {
		log.FromContext(ctx).DebugContext(ctx, "AMQP client not available, skipping event",
			log.FieldOperation, op, log.FieldExpenseID, id)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(op, id, version)); err != nil {
		events(ctx).LogError(ctx, "Failed to publish expense event", err, string(op),
			slog.String(log.FieldExpenseID, id), slog.Int64(log.FieldVersion, version))
	}
}

// Ping reports store health when the store supports it.
func (s *ExpenseService) Ping(ctx context.Context) error {
	if p, ok := s.storage.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.storage.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
