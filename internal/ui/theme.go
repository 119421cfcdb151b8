// Package ui holds the presentational building blocks shared by the HTML and
// terminal renditions of the expense screens: the color palette, labeled
// inputs and buttons.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors is the application palette. The CSS in web/static mirrors these
// values as custom properties.
var Colors = struct {
	Primary50  string
	Primary100 string
	Primary200 string
	Primary400 string
	Primary500 string
	Primary700 string
	Primary800 string
	Accent500  string
	Error50    string
	Error500   string
	Gray500    string
	Gray700    string
}{
	Primary50:  "#e4d9fd",
	Primary100: "#c6affc",
	Primary200: "#a281f0",
	Primary400: "#5721d4",
	Primary500: "#3e04c3",
	Primary700: "#2d0689",
	Primary800: "#200364",
	Accent500:  "#f7bc0c",
	Error50:    "#fcc4e4",
	Error500:   "#9b095c",
	Gray500:    "#39324a",
	Gray700:    "#221c30",
}

// Styles are the terminal counterparts of the CSS classes.
type Styles struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	LabelInvalid  lipgloss.Style
	Input         lipgloss.Style
	InputInvalid  lipgloss.Style
	Button        lipgloss.Style
	ButtonFlat    lipgloss.Style
	ButtonPressed lipgloss.Style
	ErrorText     lipgloss.Style
	Muted         lipgloss.Style
}

// DefaultStyles builds the terminal styles from Colors.
func DefaultStyles() Styles {
	c := Colors
	input := lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Primary700)).
		Background(lipgloss.Color(c.Primary100)).
		Padding(0, 1)
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			MarginBottom(1),
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color(c.Primary100)),
		LabelInvalid: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error500)),
		Input:        input,
		InputInvalid: input.Background(lipgloss.Color(c.Error50)),
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color(c.Primary500)).
			Padding(0, 2),
		ButtonFlat: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Primary200)).
			Padding(0, 2),
		ButtonPressed: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Primary800)).
			Background(lipgloss.Color(c.Primary100)).
			Padding(0, 2),
		ErrorText: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error500)),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(c.Primary200)),
	}
}
