// Package tui renders a widget in the terminal as a multi-select picker.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"multilookup/api/internal/lookup"
	"multilookup/api/internal/search"
	"multilookup/api/internal/widget"
)

type settledMsg struct{}

// Model is the bubbletea model for one widget.
type Model struct {
	ctx    context.Context
	widget *widget.Widget
	config widget.Config
	styles styles

	spinner   spinner.Model
	filter    textinput.Model
	filtering bool
	matcher   search.Fuzzy

	view    widget.View
	visible []lookup.Option
	cursor  int
	status  string
}

func New(ctx context.Context, w *widget.Widget, cfg widget.Config) Model {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter"

	return Model{
		ctx:     ctx,
		widget:  w,
		config:  cfg,
		styles:  newStyles(),
		spinner: spin,
		filter:  filter,
		view:    w.View(),
	}
}

// Value is the persisted value to print on exit.
func (m Model) Value() *string {
	return m.widget.Output()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.configure())
}

func (m Model) configure() tea.Cmd {
	return func() tea.Msg {
		<-m.widget.Configure(m.ctx, m.config)
		return settledMsg{}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		<-m.widget.Refresh(m.ctx)
		return settledMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if m.view.Status != widget.StatusLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "/":
		if m.view.Status == widget.StatusReady {
			m.filtering = true
			return m, m.filter.Focus()
		}
	case "r":
		m.status = ""
		m.view = m.widget.View()
		m.view.Status = widget.StatusLoading
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case " ", "x":
		m.toggleCurrent()
	}
	return m, nil
}

func (m *Model) toggleCurrent() {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return
	}
	key := m.visible[m.cursor].Key
	_, err := m.widget.Toggle(lookup.Toggle{Key: key, Selected: !m.isSelected(key)})
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	m.sync()
}

// sync reloads the widget snapshot, keeping the cursor on the same key when
// it is still visible.
func (m *Model) sync() {
	current := ""
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		current = m.visible[m.cursor].Key
	}
	m.view = m.widget.View()
	m.applyFilter()
	for i, option := range m.visible {
		if option.Key == current {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *Model) applyFilter() {
	text := strings.TrimSpace(m.filter.Value())
	if text == "" {
		m.visible = m.view.Options
		return
	}
	keys, _ := m.matcher.Search(search.Query{Text: text}, m.view.Options)
	byKey := make(map[string]lookup.Option, len(m.view.Options))
	for _, option := range m.view.Options {
		byKey[option.Key] = option
	}
	m.visible = make([]lookup.Option, 0, len(keys))
	for _, key := range keys {
		m.visible = append(m.visible, byKey[key])
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m Model) isSelected(key string) bool {
	for _, selected := range m.view.SelectedKeys {
		if selected == key {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.view.Query.Collection))
	b.WriteString("\n\n")

	switch m.view.Status {
	case widget.StatusLoading:
		fmt.Fprintf(&b, "%s Loading options...\n", m.spinner.View())
		return b.String()
	case widget.StatusError:
		b.WriteString(m.styles.banner.Render(m.view.Error))
		b.WriteString("\n\n")
		b.WriteString(m.styles.hint.Render("r retry • q quit"))
		b.WriteString("\n")
		return b.String()
	}

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(m.styles.hint.Render("No options"))
		b.WriteString("\n")
	}
	for i, option := range m.visible {
		pointer := "  "
		if i == m.cursor {
			pointer = m.styles.cursor.Render("> ")
		}
		box := "[ ]"
		if m.isSelected(option.Key) {
			box = m.styles.checked.Render("[x]")
		}
		label := option.Label
		switch {
		case option.Ghost:
			label = m.styles.ghost.Render(label)
		case m.view.Disabled:
			label = m.styles.disabled.Render(label)
		}
		fmt.Fprintf(&b, "%s%s %s\n", pointer, box, label)
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.banner.Render(m.status))
		b.WriteString("\n")
	}
	help := "space toggle • / filter • r reload • q done"
	if m.view.Disabled {
		help = "read only • q done"
	}
	b.WriteString(m.styles.hint.Render(help))
	b.WriteString("\n")
	return b.String()
}
