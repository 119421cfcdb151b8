package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"manageexpense/internal/form"
	"manageexpense/internal/log"
	"manageexpense/internal/screen"
	"manageexpense/internal/store"
	"manageexpense/internal/ui"
)

// pressDuration is how long a button keeps its pressed style.
const pressDuration = 150 * time.Millisecond

type releaseMsg struct{}

// focus slots: the three fields come first, then the buttons.
const (
	focusAmount = iota
	focusDate
	focusDescription
	focusCancel
	focusSubmit
	focusDelete
)

type manageView struct {
	ctx    context.Context
	screen *screen.ManageExpense
	nav    *navigator
	styles ui.Styles
	logger *log.Logger

	amount      textinput.Model
	date        textinput.Model
	description textarea.Model

	focus   int
	pressed int
	err     error
}

func newManageView(ctx context.Context, st store.Store, id string, styles ui.Styles) (*manageView, error) {
	nav := &navigator{}
	s, err := screen.Open(ctx, st, nav, id)
	if err != nil {
		return nil, err
	}
	f := s.Form()

	m := &manageView{
		ctx:     ctx,
		screen:  s,
		nav:     nav,
		styles:  styles,
		logger:  log.FromContext(ctx),
		pressed: -1,
	}

	m.amount = newTextInput(f.Input(form.FieldAmount))
	m.date = newTextInput(f.Input(form.FieldDate))

	desc := textarea.New()
	desc.ShowLineNumbers = false
	desc.Prompt = ""
	desc.SetWidth(40)
	desc.SetHeight(3)
	desc.SetValue(f.State(form.FieldDescription).Value)
	m.description = desc

	m.amount.Focus()
	return m, nil
}

func newTextInput(in ui.Input) textinput.Model {
	t := textinput.New()
	t.Prompt = ""
	t.Placeholder = in.Placeholder
	if in.MaxLength > 0 {
		t.CharLimit = in.MaxLength
	}
	t.Width = 14
	t.SetValue(in.Value)
	return t
}

func (m *manageView) slots() int {
	if m.screen.IsEditing() {
		return focusDelete + 1
	}
	return focusSubmit + 1
}

func (m *manageView) setFocus(i int) {
	n := m.slots()
	m.focus = (i + n) % n
	m.amount.Blur()
	m.date.Blur()
	m.description.Blur()
	switch m.focus {
	case focusAmount:
		m.amount.Focus()
	case focusDate:
		m.date.Focus()
	case focusDescription:
		m.description.Focus()
	}
}

func (m *manageView) onButton() bool { return m.focus >= focusCancel }

// buttons returns cancel, submit and, in edit mode, delete. Presses go
// through the screen so store failures can be shown.
func (m *manageView) buttons() []ui.Button {
	cancel, submit := m.screen.Form().Buttons()
	submit.OnPress = m.submit
	out := []ui.Button{cancel, submit}
	if del, ok := m.screen.DeleteButton(); ok {
		del.OnPress = m.delete
		out = append(out, del)
	}
	return out
}

func (m *manageView) submit() {
	done, err := m.screen.Submit()
	m.err = err
	if err != nil {
		m.logger.ErrorContext(m.ctx, "Saving expense failed", log.FieldExpenseID, m.screen.ID(), log.FieldError, err)
		return
	}
	if !done {
		m.setFocus(m.firstInvalid())
	}
}

func (m *manageView) delete() {
	m.err = m.screen.Delete()
}

func (m *manageView) firstInvalid() int {
	for i, field := range form.Fields {
		if !m.screen.Form().State(field).IsValid {
			return i
		}
	}
	return m.focus
}

func (m *manageView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case releaseMsg:
		m.pressed = -1
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.screen.Cancel()
			return nil
		case "tab":
			m.setFocus(m.focus + 1)
			return nil
		case "shift+tab":
			m.setFocus(m.focus - 1)
			return nil
		case "enter":
			if m.onButton() {
				return m.press(m.focus - focusCancel)
			}
			if m.focus != focusDescription {
				m.setFocus(m.focus + 1)
				return nil
			}
		case "d":
			if m.onButton() && m.screen.IsEditing() {
				return m.press(focusDelete - focusCancel)
			}
		}
	}
	return m.updateField(msg)
}

func (m *manageView) press(i int) tea.Cmd {
	buttons := m.buttons()
	if i < 0 || i >= len(buttons) {
		return nil
	}
	m.pressed = focusCancel + i
	m.setFocus(m.pressed)
	buttons[i].Press()
	return tea.Tick(pressDuration, func(time.Time) tea.Msg { return releaseMsg{} })
}

// updateField forwards msg to the focused editor and reports a changed value
// to the form, which clears that field's flag.
func (m *manageView) updateField(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f := m.screen.Form()
	switch m.focus {
	case focusAmount:
		m.amount, cmd = m.amount.Update(msg)
		changed(f, form.FieldAmount, m.amount.Value())
	case focusDate:
		m.date, cmd = m.date.Update(msg)
		changed(f, form.FieldDate, m.date.Value())
	case focusDescription:
		m.description, cmd = m.description.Update(msg)
		changed(f, form.FieldDescription, m.description.Value())
	}
	return cmd
}

func changed(f *form.Form, field form.Field, value string) {
	if f.State(field).Value != value {
		f.Change(field, value)
	}
}

func (m *manageView) view() string {
	s := m.styles
	f := m.screen.Form()

	var b strings.Builder
	b.WriteString(s.Title.Render(m.nav.title))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(form.Title))
	b.WriteString("\n\n")

	amount := f.Input(form.FieldAmount).Render(s, m.amount.View(), m.focus == focusAmount)
	date := f.Input(form.FieldDate).Render(s, m.date.View(), m.focus == focusDate)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, amount, "  ", date))
	b.WriteString("\n\n")
	b.WriteString(f.Input(form.FieldDescription).Render(s, m.description.View(), m.focus == focusDescription))
	b.WriteString("\n\n")

	if msg := f.Error(); msg != "" {
		b.WriteString(s.ErrorText.Render(msg))
		b.WriteString("\n\n")
	}
	if m.err != nil {
		b.WriteString(s.ErrorText.Render(m.err.Error()))
		b.WriteString("\n\n")
	}

	var rendered []string
	for i, btn := range m.buttons() {
		slot := focusCancel + i
		rendered = append(rendered, btn.Render(s, m.focus == slot, m.pressed == slot))
	}
	b.WriteString(strings.Join(rendered[:2], " "))
	if len(rendered) > 2 {
		b.WriteString("\n\n")
		b.WriteString(rendered[2])
	}
	b.WriteString("\n\n")

	help := "tab: next  enter: press  esc: cancel"
	if m.screen.IsEditing() {
		help += "  d: delete"
	}
	b.WriteString(s.Muted.Render(help))
	return b.String()
}
