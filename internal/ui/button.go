package ui

import "strings"

// Mode selects the visual variant of a Button.
type Mode string

const (
	ModeDefault Mode = ""
	ModeFlat    Mode = "flat"
)

// Button is a stateless presentational control. It carries everything needed
// to render one frame and forwards activations to OnPress.
type Button struct {
	Label   string
	OnPress func()
	Mode    Mode
	// Style is an extra CSS class list applied to the outer wrapper.
	Style string
}

// Press forwards a single activation. A nil OnPress makes it a no-op.
func (b Button) Press() {
	if b.OnPress != nil {
		b.OnPress()
	}
}

func (b Button) IsFlat() bool {
	return b.Mode == ModeFlat
}

// Classes returns the CSS classes of the inner button element.
func (b Button) Classes(pressed bool) string {
	classes := []string{"btn"}
	if b.IsFlat() {
		classes = append(classes, "btn-flat")
	}
	if pressed {
		classes = append(classes, "btn-pressed")
	}
	return strings.Join(classes, " ")
}

// Render draws the button for the terminal. pressed is true while the
// button has focus and an activation is in flight.
func (b Button) Render(s Styles, focused, pressed bool) string {
	style := s.Button
	if b.IsFlat() {
		style = s.ButtonFlat
	}
	if pressed {
		style = s.ButtonPressed
	}
	label := b.Label
	if focused {
		style = style.Underline(true)
		label = "› " + label
	}
	return style.Render(label)
}
