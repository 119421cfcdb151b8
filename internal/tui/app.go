// Package tui is the terminal rendition of the expense screens: a list of
// expenses and the manage-expense screen on top of it.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/screen"
	"manageexpense/internal/store"
	"manageexpense/internal/ui"
)

type expensesLoadedMsg struct {
	items []core.Expense
	err   error
}

// navigator adapts the screen's navigation requests to the app: GoBack
// closes the manage screen once the current key has been handled.
type navigator struct {
	title    string
	wentBack bool
}

func (n *navigator) GoBack()                     { n.wentBack = true }
func (n *navigator) SetOptions(o screen.Options) { n.title = o.Title }

// App is the root bubbletea model.
type App struct {
	ctx    context.Context
	store  store.Store
	styles ui.Styles
	logger *log.Logger

	items  []core.Expense
	cursor int
	manage *manageView
	err    error
	width  int
}

func New(ctx context.Context, st store.Store, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentTUI)
	return &App{
		ctx:    log.NewContext(ctx, logger),
		store:  st,
		styles: ui.DefaultStyles(),
		logger: logger,
	}
}

func (a *App) Init() tea.Cmd { return a.load }

func (a *App) load() tea.Msg {
	items, err := a.store.List(a.ctx)
	return expensesLoadedMsg{items: items, err: err}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil
	case expensesLoadedMsg:
		a.items, a.err = msg.items, msg.err
		if a.cursor >= len(a.items) {
			a.cursor = max(len(a.items)-1, 0)
		}
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	if a.manage != nil {
		cmd := a.manage.update(msg)
		if a.manage.nav.wentBack {
			a.manage = nil
			return a, tea.Batch(cmd, a.load)
		}
		return a, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return a, a.updateList(key)
	}
	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case "n":
		a.open("")
	case "enter":
		if a.cursor < len(a.items) {
			a.open(a.items[a.cursor].ID)
		}
	}
	return nil
}

func (a *App) open(id string) {
	m, err := newManageView(a.ctx, a.store, id, a.styles)
	if err != nil {
		a.logger.ErrorContext(a.ctx, "Failed to open expense", log.FieldExpenseID, id, log.FieldError, err)
		a.err = err
		return
	}
	a.err = nil
	a.manage = m
}

func (a *App) View() string {
	if a.manage != nil {
		return a.manage.view()
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Expenses"))
	b.WriteString("\n")

	if len(a.items) == 0 {
		b.WriteString(a.styles.Muted.Render("No expenses yet."))
		b.WriteString("\n")
	}
	var total int64
	for i, e := range a.items {
		total += e.Amount.Cents
		line := fmt.Sprintf("%s  %-30s %10s", core.FormatDate(e.Date), truncate(e.Description, 30), "€"+e.Amount.Decimal().StringFixed(2))
		if i == a.cursor {
			line = lipgloss.NewStyle().Bold(true).Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: €%s\n", core.Money{Cents: total}.Decimal().StringFixed(2)))
	if a.err != nil {
		b.WriteString(a.styles.ErrorText.Render(a.err.Error()) + "\n")
	}
	b.WriteString(a.styles.Muted.Render("n: new  enter: edit  j/k: move  q: quit"))
	return b.String()
}

// truncate cuts s to n runes and flattens newlines for single-line display.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
