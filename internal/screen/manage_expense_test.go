package screen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manageexpense/internal/core"
	"manageexpense/internal/form"
	"manageexpense/internal/store"
	"manageexpense/internal/store/memory"
)

type fakeNav struct {
	backs   int
	options []Options
}

func (n *fakeNav) GoBack()              { n.backs++ }
func (n *fakeNav) SetOptions(o Options) { n.options = append(n.options, o) }

// failingStore fails every write with err.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Add(context.Context, core.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, f.err
}

func (f failingStore) Update(context.Context, string, core.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, f.err
}

func (f failingStore) Delete(context.Context, string) error { return f.err }

func seeded(t *testing.T) (*memory.Store, core.Expense) {
	t.Helper()
	st := memory.New()
	e, err := st.Add(context.Background(), core.ExpenseInput{
		Date:        core.NewDate(2024, 1, 9),
		Description: "A book",
		Amount:      core.Money{Cents: 1499},
	})
	require.NoError(t, err)
	return st, e
}

func fill(f *form.Form, amount, date, desc string) {
	f.Change(form.FieldAmount, amount)
	f.Change(form.FieldDate, date)
	f.Change(form.FieldDescription, desc)
}

func TestOpenCreateMode(t *testing.T) {
	nav := &fakeNav{}
	s, err := Open(context.Background(), memory.New(), nav, "")
	require.NoError(t, err)

	assert.Equal(t, ModeCreate, s.Mode())
	assert.False(t, s.IsEditing())
	assert.Equal(t, []Options{{Title: "Add Expense"}}, nav.options)
	assert.Equal(t, "Add", s.Form().SubmitLabel())
	_, ok := s.DeleteButton()
	assert.False(t, ok)
	assert.Equal(t, "", s.Form().State(form.FieldAmount).Value)
}

func TestOpenEditModeSeedsForm(t *testing.T) {
	st, e := seeded(t)
	nav := &fakeNav{}
	s, err := Open(context.Background(), st, nav, e.ID)
	require.NoError(t, err)

	assert.Equal(t, ModeEdit, s.Mode())
	assert.Equal(t, []Options{{Title: "Edit Expense"}}, nav.options)
	assert.Equal(t, "Update", s.Form().SubmitLabel())
	assert.Equal(t, "14.99", s.Form().State(form.FieldAmount).Value)
	assert.Equal(t, "2024-01-09", s.Form().State(form.FieldDate).Value)
	assert.Equal(t, "A book", s.Form().State(form.FieldDescription).Value)
	_, ok := s.DeleteButton()
	assert.True(t, ok)
}

func TestOpenUnknownID(t *testing.T) {
	nav := &fakeNav{}
	_, err := Open(context.Background(), memory.New(), nav, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, nav.options)
}

func TestSubmitCreateAddsAndGoesBack(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	nav := &fakeNav{}
	s, err := Open(ctx, st, nav, "")
	require.NoError(t, err)

	fill(s.Form(), "19.99", "2024-01-10", "Groceries")
	done, err := s.Submit()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, nav.backs)

	items, _ := st.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1999), items[0].Amount.Cents)
	assert.Equal(t, "2024-01-10", core.FormatDate(items[0].Date))
	assert.Equal(t, "Groceries", items[0].Description)
}

func TestSubmitEditUpdatesAndGoesBack(t *testing.T) {
	ctx := context.Background()
	st, e := seeded(t)
	nav := &fakeNav{}
	s, err := Open(ctx, st, nav, e.ID)
	require.NoError(t, err)

	s.Form().Change(form.FieldAmount, "20")
	done, err := s.Submit()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, nav.backs)

	got, err := st.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Amount.Cents)
	assert.Equal(t, "A book", got.Description)
	items, _ := st.List(ctx)
	assert.Len(t, items, 1)
}

func TestSubmitInvalidStaysOnScreen(t *testing.T) {
	st := memory.New()
	nav := &fakeNav{}
	s, err := Open(context.Background(), st, nav, "")
	require.NoError(t, err)

	fill(s.Form(), "-5", "2024-01-10", "x")
	done, err := s.Submit()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, nav.backs)
	assert.False(t, s.Form().State(form.FieldAmount).IsValid)
	items, _ := st.List(context.Background())
	assert.Empty(t, items)
}

func TestSubmitSubCentAmountFlagsAmount(t *testing.T) {
	nav := &fakeNav{}
	s, err := Open(context.Background(), memory.New(), nav, "")
	require.NoError(t, err)

	fill(s.Form(), "0.001", "2024-01-10", "dust")
	done, err := s.Submit()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, nav.backs)
	assert.False(t, s.Form().State(form.FieldAmount).IsValid)
	assert.Equal(t, form.ErrorMessage, s.Form().Error())
}

func TestSubmitStoreFailureDoesNotNavigate(t *testing.T) {
	boom := errors.New("disk full")
	nav := &fakeNav{}
	s, err := Open(context.Background(), failingStore{Store: memory.New(), err: boom}, nav, "")
	require.NoError(t, err)

	fill(s.Form(), "1", "2024-01-10", "x")
	done, err := s.Submit()
	assert.ErrorIs(t, err, boom)
	assert.False(t, done)
	assert.Zero(t, nav.backs)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("edit mode removes and goes back", func(t *testing.T) {
		st, e := seeded(t)
		nav := &fakeNav{}
		s, err := Open(ctx, st, nav, e.ID)
		require.NoError(t, err)

		btn, ok := s.DeleteButton()
		require.True(t, ok)
		btn.Press()
		assert.Equal(t, 1, nav.backs)
		_, err = st.Get(ctx, e.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("create mode is rejected", func(t *testing.T) {
		nav := &fakeNav{}
		s, err := Open(ctx, memory.New(), nav, "")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Delete(), ErrNotEditing)
		assert.Zero(t, nav.backs)
	})

	t.Run("store failure does not navigate", func(t *testing.T) {
		st, e := seeded(t)
		boom := errors.New("locked")
		nav := &fakeNav{}
		s, err := Open(ctx, failingStore{Store: st, err: boom}, nav, e.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Delete(), boom)
		assert.Zero(t, nav.backs)
	})
}

func TestCancelGoesBackWithoutWriting(t *testing.T) {
	st, e := seeded(t)
	nav := &fakeNav{}
	s, err := Open(context.Background(), st, nav, e.ID)
	require.NoError(t, err)

	s.Form().Change(form.FieldDescription, "changed")
	cancel, _ := s.Form().Buttons()
	cancel.Press()
	assert.Equal(t, 1, nav.backs)

	got, _ := st.Get(context.Background(), e.ID)
	assert.Equal(t, "A book", got.Description)
}

func TestFieldFor(t *testing.T) {
	f, ok := FieldFor(core.ErrInvalidAmount)
	assert.True(t, ok)
	assert.Equal(t, form.FieldAmount, f)
	f, ok = FieldFor(errors.Join(errors.New("wrapped"), core.ErrEmptyDescription))
	assert.True(t, ok)
	assert.Equal(t, form.FieldDescription, f)
	_, ok = FieldFor(store.ErrNotFound)
	assert.False(t, ok)
}
