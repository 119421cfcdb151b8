package ui

import "strings"

// Input describes a labeled text field for one render pass.
type Input struct {
	Name        string
	Label       string
	Value       string
	Placeholder string
	// InputMode is the HTML inputmode hint ("decimal" for amounts).
	InputMode string
	MaxLength int
	Multiline bool
	Invalid   bool
}

// Classes returns the CSS classes for the input wrapper.
func (in Input) Classes() string {
	classes := []string{"input"}
	if in.Multiline {
		classes = append(classes, "input-multiline")
	}
	if in.Invalid {
		classes = append(classes, "input-invalid")
	}
	return strings.Join(classes, " ")
}

// Render draws the label and value for the terminal. field is the rendered
// editor (for example a textinput view); when empty the plain value is used.
func (in Input) Render(s Styles, field string, focused bool) string {
	label := s.Label
	box := s.Input
	if in.Invalid {
		label = s.LabelInvalid
		box = s.InputInvalid
	}
	if focused {
		box = box.Bold(true)
	}
	if field == "" {
		field = in.Value
		if field == "" {
			field = s.Muted.Render(in.Placeholder)
		}
	}
	return label.Render(in.Label) + "\n" + box.Render(field)
}
