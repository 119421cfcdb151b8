// Package form implements the expense form: per-field string state with
// validity flags, coercion of the raw strings into typed values on submit,
// and the view model both renderers draw from.
package form

import (
	"manageexpense/internal/core"
	"manageexpense/internal/ui"
)

// Field names one of the editable inputs.
type Field string

const (
	FieldAmount      Field = "amount"
	FieldDate        Field = "date"
	FieldDescription Field = "description"
)

// Fields lists the inputs in display order.
var Fields = []Field{FieldAmount, FieldDate, FieldDescription}

const (
	Title        = "Your Expense"
	ErrorMessage = "Invalid input values - please check your entered data!"
	DatePattern  = "YYYY-MM-DD"
)

// ParseField maps a submitted field name to a Field.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// FieldState is the raw text of one input and whether it passed the last
// submit. Editing resets IsValid to true.
type FieldState struct {
	Value   string
	IsValid bool
}

// Props configures a Form.
type Props struct {
	IsEditing bool
	OnCancel  func()
	OnSubmit  func(ExpenseData)
	// Selected seeds the fields when editing an existing expense.
	Selected *core.Expense
}

// Form owns the state of the three fields. It is not safe for concurrent use;
// each screen instance owns exactly one.
type Form struct {
	props       Props
	amount      FieldState
	date        FieldState
	description FieldState
}

func New(p Props) *Form {
	f := &Form{
		props:       p,
		amount:      FieldState{IsValid: true},
		date:        FieldState{IsValid: true},
		description: FieldState{IsValid: true},
	}
	if e := p.Selected; e != nil {
		f.amount.Value = e.Amount.String()
		f.date.Value = core.FormatDate(e.Date)
		f.description.Value = e.Description
	}
	return f
}

func (f *Form) state(field Field) *FieldState {
	switch field {
	case FieldAmount:
		return &f.amount
	case FieldDate:
		return &f.date
	case FieldDescription:
		return &f.description
	}
	return nil
}

// State returns a copy of the field's current state.
func (f *Form) State(field Field) FieldState {
	if s := f.state(field); s != nil {
		return *s
	}
	return FieldState{}
}

// Change stores a new value for the field and clears its error flag.
// It reports false for an unknown field.
func (f *Form) Change(field Field, value string) bool {
	s := f.state(field)
	if s == nil {
		return false
	}
	*s = FieldState{Value: value, IsValid: true}
	return true
}

// Submit validates the current values. On success it hands the parsed data
// to OnSubmit and leaves the state alone; otherwise every flag is replaced by
// its fresh result and OnSubmit is not called.
func (f *Form) Submit() bool {
	data, v := Parse(f.amount.Value, f.date.Value, f.description.Value)
	if !v.OK() {
		f.amount.IsValid = v.Amount
		f.date.IsValid = v.Date
		f.description.IsValid = v.Description
		return false
	}
	if f.props.OnSubmit != nil {
		f.props.OnSubmit(data)
	}
	return true
}

// Cancel forwards to OnCancel without validating.
func (f *Form) Cancel() {
	if f.props.OnCancel != nil {
		f.props.OnCancel()
	}
}

// Reject marks a field invalid after a check performed outside the form,
// such as the store refusing an amount that rounds to zero cents.
func (f *Form) Reject(field Field) {
	if s := f.state(field); s != nil {
		s.IsValid = false
	}
}

func (f *Form) IsEditing() bool {
	return f.props.IsEditing
}

// HasErrors reports whether any field failed the last submit.
func (f *Form) HasErrors() bool {
	return !f.amount.IsValid || !f.date.IsValid || !f.description.IsValid
}

// Error returns the shared message while any flag is false, else "".
func (f *Form) Error() string {
	if f.HasErrors() {
		return ErrorMessage
	}
	return ""
}

// ShowInvalid is the display signal handed to an input: the field failed the
// last submit, or it is currently empty.
func (f *Form) ShowInvalid(field Field) bool {
	s := f.State(field)
	return !s.IsValid || s.Value == ""
}

// Input returns the view model of one field.
func (f *Form) Input(field Field) ui.Input {
	in := ui.Input{
		Name:    string(field),
		Value:   f.State(field).Value,
		Invalid: f.ShowInvalid(field),
	}
	switch field {
	case FieldAmount:
		in.Label = "Amount"
		in.InputMode = "decimal"
	case FieldDate:
		in.Label = "Date"
		in.Placeholder = DatePattern
		in.MaxLength = 10
	case FieldDescription:
		in.Label = "Description"
		in.Multiline = true
	}
	return in
}

// Inputs returns the view models of every field in display order.
func (f *Form) Inputs() []ui.Input {
	out := make([]ui.Input, len(Fields))
	for i, field := range Fields {
		out[i] = f.Input(field)
	}
	return out
}

// SubmitLabel is "Update" when editing, "Add" otherwise.
func (f *Form) SubmitLabel() string {
	if f.props.IsEditing {
		return "Update"
	}
	return "Add"
}

// Buttons returns the cancel (flat) and submit controls.
func (f *Form) Buttons() (cancel, submit ui.Button) {
	cancel = ui.Button{Label: "Cancel", Mode: ui.ModeFlat, OnPress: f.Cancel, Style: "form-action"}
	submit = ui.Button{Label: f.SubmitLabel(), OnPress: func() { f.Submit() }, Style: "form-action"}
	return cancel, submit
}
