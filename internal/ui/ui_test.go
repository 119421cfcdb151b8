package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestButtonPress(t *testing.T) {
	count := 0
	b := Button{Label: "Add", OnPress: func() { count++ }}
	b.Press()
	b.Press()
	assert.Equal(t, 2, count)

	// nil handler is a no-op
	Button{Label: "Noop"}.Press()
}

func TestButtonClasses(t *testing.T) {
	assert.Equal(t, "btn", Button{}.Classes(false))
	assert.Equal(t, "btn btn-flat", Button{Mode: ModeFlat}.Classes(false))
	assert.Equal(t, "btn btn-flat btn-pressed", Button{Mode: ModeFlat}.Classes(true))
	assert.Equal(t, "btn btn-pressed", Button{Mode: Mode("other")}.Classes(true))
}

func TestButtonRenderKeepsLabel(t *testing.T) {
	s := DefaultStyles()
	b := Button{Label: "Cancel", Mode: ModeFlat}
	assert.Contains(t, b.Render(s, false, false), "Cancel")
	assert.Contains(t, b.Render(s, true, false), "› Cancel")
	assert.Contains(t, b.Render(s, true, true), "Cancel")
}

func TestInputClasses(t *testing.T) {
	assert.Equal(t, "input", Input{}.Classes())
	assert.Equal(t, "input input-multiline input-invalid", Input{Multiline: true, Invalid: true}.Classes())
}

func TestInputRender(t *testing.T) {
	s := DefaultStyles()

	out := Input{Label: "Date", Placeholder: "YYYY-MM-DD"}.Render(s, "", false)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "Date")
	assert.Contains(t, out, "YYYY-MM-DD")

	out = Input{Label: "Amount", Value: "12.5"}.Render(s, "", true)
	assert.Contains(t, out, "12.5")

	out = Input{Label: "Amount", Value: "12.5"}.Render(s, "[editor]", false)
	assert.Contains(t, out, "[editor]")
	assert.NotContains(t, out, "12.5")
}
