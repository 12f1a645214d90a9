package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard stacks several detail panels. Keys go to the focused panel;
// every other message is broadcast, and each panel picks out its own fetch
// completions and spinner ticks.
type Dashboard[T any] struct {
	panels   []*DetailModel[T]
	focus    int
	keys     KeyMap
	quitting bool
}

// NewDashboard creates a dashboard over panels. The first panel has focus.
func NewDashboard[T any](panels ...*DetailModel[T]) *Dashboard[T] {
	for i, p := range panels {
		p.focused = i == 0
	}
	return &Dashboard[T]{panels: panels, keys: DefaultKeyMap()}
}

// Focused returns the index of the focused panel.
func (d *Dashboard[T]) Focused() int {
	return d.focus
}

// Panels returns the dashboard's panels.
func (d *Dashboard[T]) Panels() []*DetailModel[T] {
	return d.panels
}

// Init begins the initial load of every panel.
func (d *Dashboard[T]) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(d.panels))
	for _, p := range d.panels {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (d *Dashboard[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return d, d.handleKey(keyMsg)
	}

	cmds := make([]tea.Cmd, 0, len(d.panels))
	for _, p := range d.panels {
		cmds = append(cmds, p.update(msg))
	}
	return d, tea.Batch(cmds...)
}

func (d *Dashboard[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Quit):
		d.quitting = true
		for _, p := range d.panels {
			p.Stop()
		}
		return tea.Quit
	case key.Matches(msg, d.keys.Next):
		if len(d.panels) == 0 {
			return nil
		}
		d.panels[d.focus].focused = false
		d.focus = (d.focus + 1) % len(d.panels)
		d.panels[d.focus].focused = true
		return nil
	}

	if len(d.panels) == 0 {
		return nil
	}
	return d.panels[d.focus].handleKey(msg)
}

// View renders every panel followed by the focused panel's key help.
func (d *Dashboard[T]) View() string {
	if d.quitting || len(d.panels) == 0 {
		return ""
	}

	sections := make([]string, 0, len(d.panels)+1)
	for _, p := range d.panels {
		sections = append(sections, p.Panel())
	}
	sections = append(sections, d.panels[d.focus].HelpView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
