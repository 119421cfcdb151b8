package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manageexpense/internal/amqp"
	"manageexpense/internal/core"
	"manageexpense/internal/store"
	"manageexpense/internal/store/memory"
)

var _ store.Store = (*ExpenseService)(nil)

type fakePublisher struct {
	mu     sync.Mutex
	events []amqp.ExpenseEvent
	err    error
	closed bool
}

func (p *fakePublisher) PublishExpenseEvent(_ context.Context, e *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *e)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type closingStore struct {
	*memory.Store
	err error
}

func (s closingStore) Close() error { return s.err }

func input(desc string, cents int64) core.ExpenseInput {
	return core.ExpenseInput{Date: core.NewDate(2024, 1, 10), Description: desc, Amount: core.Money{Cents: cents}}
}

func TestExpenseService_PublishesAfterEachMutation(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewExpenseService(memory.New(), pub)

	e, err := svc.Add(ctx, input("Groceries", 1999))
	require.NoError(t, err)
	_, err = svc.Update(ctx, e.ID, input("Groceries", 2099))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, e.ID))

	require.Len(t, pub.events, 3)
	assert.Equal(t, amqp.OpCreate, pub.events[0].Op)
	assert.Equal(t, int64(1), pub.events[0].Version)
	assert.Equal(t, amqp.OpUpdate, pub.events[1].Op)
	assert.Equal(t, int64(2), pub.events[1].Version)
	assert.Equal(t, amqp.OpDelete, pub.events[2].Op)
	for _, ev := range pub.events {
		assert.Equal(t, e.ID, ev.ID)
	}
}

func TestExpenseService_NoEventOnFailure(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewExpenseService(memory.New(), pub)

	_, err := svc.Add(ctx, input("", 100))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
	_, err = svc.Update(ctx, "missing", input("x", 100))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), store.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestExpenseService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), &fakePublisher{err: errors.New("broker down")})

	e, err := svc.Add(ctx, input("Book", 1499))
	require.NoError(t, err)
	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Description)
}

func TestExpenseService_WithoutPublisher(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), nil)
	_, err := svc.Add(ctx, input("Book", 1499))
	require.NoError(t, err)
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, svc.Ping(ctx))
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("closes both components", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewExpenseService(closingStore{Store: memory.New()}, pub)
		require.NoError(t, svc.Close())
		assert.True(t, pub.closed)
	})

	t.Run("aggregates storage errors", func(t *testing.T) {
		svc := NewExpenseService(closingStore{Store: memory.New(), err: errors.New("disk gone")}, nil)
		err := svc.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage: disk gone")
	})
}
