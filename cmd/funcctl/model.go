package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fluorfn/runtime/pkg/function"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D4AA")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)

// tab identifies which repository the table is currently listing.
type tab int

const (
	tabFunctions tab = iota
	tabTriggers
)

// model is the bubbletea model for funcctl: a two-tab browser over the
// deployed function and trigger metadata.
type model struct {
	funcRepo function.FunctionRepository
	trigRepo function.TriggerRepository

	active tab
	tbl    table.Model
	err    error
	width  int
	height int
}

func newModel(funcRepo function.FunctionRepository, trigRepo function.TriggerRepository) model {
	m := model{
		funcRepo: funcRepo,
		trigRepo: trigRepo,
		active:   tabFunctions,
		tbl:      table.New(table.WithFocused(true)),
	}
	m.tbl.SetColumns(functionColumns())
	return m
}

func (m model) Init() tea.Cmd {
	return m.reload()
}

// functionsLoadedMsg/triggersLoadedMsg carry freshly-fetched rows back into
// the Update loop; errLoadMsg carries a repository failure.
type functionsLoadedMsg []*function.Function
type triggersLoadedMsg []*function.Trigger
type errLoadMsg struct{ err error }

func functionColumns() []table.Column {
	return []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Language", Width: 10},
		{Title: "Path", Width: 36},
		{Title: "ReadOnly", Width: 8},
	}
}

func triggerColumns() []table.Column {
	return []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Method", Width: 8},
		{Title: "Path", Width: 28},
		{Title: "Function", Width: 20},
		{Title: "ReadOnly", Width: 8},
	}
}

func (m model) reload() tea.Cmd {
	switch m.active {
	case tabTriggers:
		return func() tea.Msg {
			ts, err := m.trigRepo.FindAll(context.Background())
			if err != nil {
				return errLoadMsg{err}
			}
			return triggersLoadedMsg(ts)
		}
	default:
		return func() tea.Msg {
			fns, err := m.funcRepo.FindAll(context.Background())
			if err != nil {
				return errLoadMsg{err}
			}
			return functionsLoadedMsg(fns)
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tbl.SetHeight(msg.Height - 8)
		return m, nil

	case functionsLoadedMsg:
		m.err = nil
		m.tbl.SetColumns(functionColumns())
		rows := make([]table.Row, 0, len(msg))
		for _, fn := range msg {
			rows = append(rows, table.Row{fn.Name, string(fn.Language), fn.Path, fmt.Sprintf("%v", fn.ReadOnly)})
		}
		m.tbl.SetRows(rows)
		return m, nil

	case triggersLoadedMsg:
		m.err = nil
		m.tbl.SetColumns(triggerColumns())
		rows := make([]table.Row, 0, len(msg))
		for _, t := range msg {
			rows = append(rows, table.Row{t.Name, t.Method.String(), t.Path, t.FunctionName, fmt.Sprintf("%v", t.ReadOnly)})
		}
		m.tbl.SetRows(rows)
		return m, nil

	case errLoadMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.active == tabFunctions {
				m.active = tabTriggers
			} else {
				m.active = tabFunctions
			}
			return m, m.reload()
		case "r":
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m model) View() string {
	tabName := "Functions"
	if m.active == tabTriggers {
		tabName = "Triggers"
	}

	var b string
	b += titleStyle.Render("funcctl") + "\n"
	b += subtitleStyle.Render(fmt.Sprintf("viewing: %s", tabName)) + "\n\n"
	if m.err != nil {
		b += errorStyle.Render("error: "+m.err.Error()) + "\n\n"
	}
	b += m.tbl.View() + "\n"
	b += helpStyle.Render("tab: switch  r: refresh  q: quit")
	return b
}
