package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manageexpense/internal/amqp"
	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/store"
)

type fakeSource struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	synced   map[string]int64
	getErr   error
	markErr  error
}

func newFakeSource(es ...core.Expense) *fakeSource {
	s := &fakeSource{expenses: map[string]core.Expense{}, synced: map[string]int64{}}
	for _, e := range es {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *fakeSource) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return core.Expense{}, s.getErr
	}
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *fakeSource) PendingSync(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if s.synced[e.ID] < e.Version {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSource) MarkSynced(_ context.Context, id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	if s.synced[id] < version {
		s.synced[id] = version
	}
	return nil
}

type fakeMirror struct {
	mu      sync.Mutex
	rows    map[string]core.Expense
	deleted []string
	err     error
}

func (m *fakeMirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.rows == nil {
		m.rows = map[string]core.Expense{}
	}
	m.rows[e.ID] = e
	return nil
}

func (m *fakeMirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func exp(id string, version int64) core.Expense {
	return core.Expense{
		ID:          id,
		Date:        core.NewDate(2024, 1, 9),
		Description: "Book",
		Amount:      core.Money{Cents: 2999},
		Version:     version,
	}
}

func TestHandleCreateMirrorsStoredVersion(t *testing.T) {
	src := newFakeSource(exp("e1", 3))
	mirror := &fakeMirror{}
	w := NewSyncWorker(src, mirror, 0, log.Discard())

	// the event names an older version; the stored one wins
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpUpdate, "e1", 2)))
	assert.Equal(t, int64(3), mirror.rows["e1"].Version)
	assert.Equal(t, int64(3), src.synced["e1"])
}

func TestHandleCreateForMissingExpense(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(newFakeSource(), mirror, 10, log.Discard())
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpCreate, "gone", 1)))
	assert.Empty(t, mirror.rows)
}

func TestHandleDelete(t *testing.T) {
	mirror := &fakeMirror{rows: map[string]core.Expense{"e1": exp("e1", 1)}}
	w := NewSyncWorker(newFakeSource(), mirror, 10, log.Discard())
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpDelete, "e1", 1)))
	assert.Equal(t, []string{"e1"}, mirror.deleted)
	assert.Empty(t, mirror.rows)
}

func TestHandleEventErrorsRequeue(t *testing.T) {
	boom := errors.New("sheets down")
	src := newFakeSource(exp("e1", 1))
	w := NewSyncWorker(src, &fakeMirror{err: boom}, 10, log.Discard())

	err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpCreate, "e1", 1))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, src.synced["e1"])

	err = w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpDelete, "e1", 1))
	assert.ErrorIs(t, err, boom)

	src.getErr = errors.New("db locked")
	w = NewSyncWorker(src, &fakeMirror{}, 10, log.Discard())
	assert.Error(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpUpdate, "e1", 1)))
}

func TestHandleIgnoresMarkFailure(t *testing.T) {
	src := newFakeSource(exp("e1", 1))
	src.markErr = errors.New("readonly")
	mirror := &fakeMirror{}
	w := NewSyncWorker(src, mirror, 10, log.Discard())
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.OpCreate, "e1", 1)))
	assert.Contains(t, mirror.rows, "e1")
}

func TestReconcilePagesThroughPending(t *testing.T) {
	src := newFakeSource(exp("a", 1), exp("b", 2), exp("c", 1), exp("d", 1), exp("e", 1))
	src.synced["b"] = 2
	mirror := &fakeMirror{}
	w := NewSyncWorker(src, mirror, 2, log.Discard())

	n, err := w.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, mirror.rows, 4)
	assert.NotContains(t, mirror.rows, "b")
}

func TestReconcileStopsWhenMarksDoNotStick(t *testing.T) {
	src := newFakeSource(exp("a", 1), exp("b", 1))
	src.markErr = errors.New("readonly")
	w := NewSyncWorker(src, &fakeMirror{}, 2, log.Discard())

	n, err := w.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReconcileCountsMirrorFailures(t *testing.T) {
	src := newFakeSource(exp("a", 1))
	w := NewSyncWorker(src, &fakeMirror{err: errors.New("down")}, 10, log.Discard())
	n, err := w.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
