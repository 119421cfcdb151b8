// Package screen implements the manage-expense screen: it picks create or
// edit mode from the presence of an expense ID, titles the navigation bar,
// owns the expense form and, on confirm or delete, writes through the store
// and navigates back.
package screen

import (
	"context"
	"errors"
	"fmt"

	"manageexpense/internal/core"
	"manageexpense/internal/form"
	"manageexpense/internal/log"
	"manageexpense/internal/store"
	"manageexpense/internal/ui"
)

const (
	TitleEdit = "Edit Expense"
	TitleAdd  = "Add Expense"
)

// ErrNotEditing is returned by Delete on a screen opened in create mode.
var ErrNotEditing = errors.New("delete requires an existing expense")

// Mode is fixed for the lifetime of a screen.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Options are the navigation bar settings a screen requests.
type Options struct {
	Title string
}

// Navigator is the host's navigation stack.
type Navigator interface {
	GoBack()
	SetOptions(Options)
}

// ManageExpense is one mounted instance of the screen. Like the form it owns,
// it is not safe for concurrent use.
type ManageExpense struct {
	ctx    context.Context
	id     string
	mode   Mode
	store  store.Store
	nav    Navigator
	form   *form.Form
	logger *log.Logger
	// err records the store failure of the last confirm, if any.
	err error
}

// Open mounts the screen. An empty id opens it in create mode; otherwise
// the expense is loaded to seed the form. store.ErrNotFound is returned for
// an unknown id.
func Open(ctx context.Context, st store.Store, nav Navigator, id string) (*ManageExpense, error) {
	s := &ManageExpense{
		ctx:    ctx,
		id:     id,
		store:  st,
		nav:    nav,
		logger: log.FromContext(ctx).WithComponent(log.ComponentScreen),
	}

	var selected *core.Expense
	if id != "" {
		s.mode = ModeEdit
		e, err := st.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load expense %s: %w", id, err)
		}
		selected = &e
	}

	nav.SetOptions(Options{Title: s.Title()})

	s.form = form.New(form.Props{
		IsEditing: s.mode == ModeEdit,
		OnCancel:  s.Cancel,
		OnSubmit:  s.confirm,
		Selected:  selected,
	})
	return s, nil
}

func (s *ManageExpense) Mode() Mode      { return s.mode }
func (s *ManageExpense) ID() string      { return s.id }
func (s *ManageExpense) IsEditing() bool { return s.mode == ModeEdit }

func (s *ManageExpense) Title() string {
	if s.IsEditing() {
		return TitleEdit
	}
	return TitleAdd
}

// Form exposes the owned form for rendering and change events.
func (s *ManageExpense) Form() *form.Form { return s.form }

// DeleteButton is the trash control shown in edit mode only.
func (s *ManageExpense) DeleteButton() (ui.Button, bool) {
	if !s.IsEditing() {
		return ui.Button{}, false
	}
	return ui.Button{
		Label: "Delete",
		Mode:  ui.ModeFlat,
		Style: "delete",
		OnPress: func() {
			if err := s.Delete(); err != nil {
				s.logger.ErrorContext(s.ctx, "Delete failed", log.FieldExpenseID, s.id, log.FieldError, err)
			}
		},
	}, true
}

// Submit presses the form's submit button. done is true once the expense
// was stored and the screen navigated back. A field that fails validation,
// in the form or in the store, yields done == false with a nil error and the
// field flagged; any other store failure is returned.
func (s *ManageExpense) Submit() (done bool, err error) {
	s.err = nil
	if !s.form.Submit() {
		return false, nil
	}
	if s.err != nil {
		if field, ok := FieldFor(s.err); ok {
			s.form.Reject(field)
			return false, nil
		}
		return false, s.err
	}
	return true, nil
}

// Confirm stores data (update in edit mode, add otherwise) and navigates
// back. On a store failure nothing navigates and the error is returned.
func (s *ManageExpense) Confirm(data form.ExpenseData) error {
	in, err := toInput(data)
	if err != nil {
		return err
	}
	if s.IsEditing() {
		if _, err := s.store.Update(s.ctx, s.id, in); err != nil {
			return err
		}
	} else {
		if _, err := s.store.Add(s.ctx, in); err != nil {
			return err
		}
	}
	s.nav.GoBack()
	return nil
}

func (s *ManageExpense) confirm(data form.ExpenseData) {
	s.err = s.Confirm(data)
	if s.err != nil {
		s.logger.ErrorContext(s.ctx, "Confirm failed",
			log.FieldMode, s.mode.String(), log.FieldExpenseID, s.id, log.FieldError, s.err)
	}
}

// Delete removes the expense being edited and navigates back.
func (s *ManageExpense) Delete() error {
	if !s.IsEditing() {
		return ErrNotEditing
	}
	if err := s.store.Delete(s.ctx, s.id); err != nil {
		return err
	}
	s.nav.GoBack()
	return nil
}

// Cancel navigates back without touching the store.
func (s *ManageExpense) Cancel() {
	s.nav.GoBack()
}

func toInput(data form.ExpenseData) (core.ExpenseInput, error) {
	amount, err := core.MoneyFromFloat(data.Amount)
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Date:        core.DateOf(data.Date),
		Description: data.Description,
		Amount:      amount,
	}, nil
}

// FieldFor maps a store validation error back onto the form field it
// concerns. ok is false for errors no field explains.
func FieldFor(err error) (form.Field, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return form.FieldAmount, true
	case errors.Is(err, core.ErrInvalidDate):
		return form.FieldDate, true
	case errors.Is(err, core.ErrEmptyDescription):
		return form.FieldDescription, true
	}
	return "", false
}
