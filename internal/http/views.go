package http

import (
	"manageexpense/internal/core"
	"manageexpense/internal/form"
	"manageexpense/internal/screen"
	"manageexpense/internal/ui"
)

type pageView struct {
	Title     string
	RequestID string
}

type listView struct {
	pageView
	Items []listItemView
	Total string
	Add   buttonView
}

type listItemView struct {
	ID          string
	Date        string
	Description string
	Amount      string
}

type manageView struct {
	pageView
	Form   formView
	Delete *buttonView
	// DeleteAction is the POST target of the delete button.
	DeleteAction string
}

type formView struct {
	Action      string
	Heading     string
	Amount      fieldView
	Date        fieldView
	Description fieldView
	Error       string
	Cancel      buttonView
	Submit      buttonView
}

// fieldView is one input plus whether its flag is currently false. The flag
// travels with the page so a later change event can rebuild the form.
type fieldView struct {
	ui.Input
	Flagged bool
	// Endpoint receives change events for this field.
	Endpoint string
}

func newFieldView(f *form.Form, field form.Field) fieldView {
	return fieldView{
		Input:    f.Input(field),
		Flagged:  !f.State(field).IsValid,
		Endpoint: fieldEndpoint,
	}
}

// buttonView renders a ui.Button as a link when Href is set, otherwise as a
// button of the given Type.
type buttonView struct {
	ui.Button
	Classes string
	Href    string
	Type    string
}

func newListView(title string, items []core.Expense) listView {
	v := listView{
		pageView: pageView{Title: title},
		Add: buttonView{
			Button:  ui.Button{Label: "Add Expense"},
			Classes: ui.Button{}.Classes(false),
			Href:    "/expenses/new",
		},
	}
	var total int64
	for _, e := range items {
		total += e.Amount.Cents
		v.Items = append(v.Items, listItemView{
			ID:          e.ID,
			Date:        core.FormatDate(e.Date),
			Description: e.Description,
			Amount:      formatEuros(e.Amount.Cents),
		})
	}
	v.Total = formatEuros(total)
	return v
}

func newFormView(s *screen.ManageExpense) formView {
	f := s.Form()
	cancel, submit := f.Buttons()
	action := "/expenses"
	if s.IsEditing() {
		action = "/expenses/" + s.ID()
	}
	return formView{
		Action:      action,
		Heading:     form.Title,
		Amount:      newFieldView(f, form.FieldAmount),
		Date:        newFieldView(f, form.FieldDate),
		Description: newFieldView(f, form.FieldDescription),
		Error:       f.Error(),
		Cancel:      buttonView{Button: cancel, Classes: cancel.Classes(false), Href: backTarget},
		Submit:      buttonView{Button: submit, Classes: submit.Classes(false), Type: "submit"},
	}
}

func newManageView(s *screen.ManageExpense, title string) manageView {
	v := manageView{
		pageView: pageView{Title: title},
		Form:     newFormView(s),
	}
	if del, ok := s.DeleteButton(); ok {
		v.Delete = &buttonView{Button: del, Classes: del.Classes(false), Type: "submit"}
		v.DeleteAction = "/expenses/" + s.ID() + "/delete"
	}
	return v
}
